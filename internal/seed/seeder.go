package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/carecircle/backend/internal/database"
	"github.com/carecircle/backend/internal/logger"
	"github.com/carecircle/backend/internal/models"
	"github.com/carecircle/backend/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedDomain marks generated accounts so Clean can find them
const SeedDomain = "@seed.carecircle.dev"

// DefaultPassword is the password of every seeded account
const DefaultPassword = "password123"

var specializations = []string{
	"Cardiology", "Endocrinology", "Oncology", "Psychiatry", "Rheumatology",
	"Pulmonology", "Gastroenterology", "Neurology", "Immunology", "General Practice",
}

// Options controls how much data SeedDev generates
type Options struct {
	Users int
	Posts int
}

// Seeder fills a database with realistic development data
type Seeder struct {
	db       *gorm.DB
	hashCost int
	rng      *rand.Rand
}

// NewSeeder creates a seeder; hashCost 0 means bcrypt.DefaultCost
func NewSeeder(db *gorm.DB, hashCost int) *Seeder {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Seeder{
		db:       db,
		hashCost: hashCost,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Result counts what SeedDev created
type Result struct {
	Users     int `json:"users"`
	Doctors   int `json:"doctors"`
	Posts     int `json:"posts"`
	Blogs     int `json:"blogs"`
	Comments  int `json:"comments"`
	Events    int `json:"events"`
	Diseases  int `json:"diseases"`
	Diets     int `json:"diets"`
	Exercises int `json:"exercises"`
}

// SeedDev creates users, content, events and health records
func (s *Seeder) SeedDev(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users <= 0 {
		opts.Users = 20
	}
	if opts.Posts <= 0 {
		opts.Posts = 50
	}
	db := s.db.WithContext(ctx)
	res := &Result{}

	users, err := s.seedUsers(db, opts.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	var doctors, patients []models.User
	for _, u := range users {
		if u.IsApprovedDoctor() {
			doctors = append(doctors, u)
		} else {
			patients = append(patients, u)
		}
	}
	res.Users, res.Doctors = len(users), len(doctors)
	logger.Log.Info("Seeded users", zap.Int("users", len(users)), zap.Int("doctors", len(doctors)))

	if err := s.seedFollows(db, users); err != nil {
		return nil, fmt.Errorf("failed to seed follows: %w", err)
	}

	posts, err := s.seedPosts(db, users, opts.Posts)
	if err != nil {
		return nil, fmt.Errorf("failed to seed posts: %w", err)
	}
	res.Posts = len(posts)

	if len(doctors) > 0 {
		blogs, err := s.seedBlogs(db, doctors, opts.Posts/5+1)
		if err != nil {
			return nil, fmt.Errorf("failed to seed blogs: %w", err)
		}
		res.Blogs = len(blogs)

		events, err := s.seedEvents(db, doctors, patients, opts.Users/4+1)
		if err != nil {
			return nil, fmt.Errorf("failed to seed events: %w", err)
		}
		res.Events = events

		diseases, err := s.seedDiseases(db, doctors[0])
		if err != nil {
			return nil, fmt.Errorf("failed to seed diseases: %w", err)
		}
		res.Diseases = diseases
	}

	comments, err := s.seedComments(db, users, posts, opts.Posts*2)
	if err != nil {
		return nil, fmt.Errorf("failed to seed comments: %w", err)
	}
	res.Comments = comments

	diets, exercises, err := s.seedHealth(db, patients)
	if err != nil {
		return nil, fmt.Errorf("failed to seed health records: %w", err)
	}
	res.Diets, res.Exercises = diets, exercises

	logger.Log.Info("Seed complete",
		zap.Int("posts", res.Posts),
		zap.Int("blogs", res.Blogs),
		zap.Int("comments", res.Comments),
		zap.Int("events", res.Events),
	)
	return res, nil
}

func (s *Seeder) pick(list []string) string {
	return list[s.rng.Intn(len(list))]
}

func (s *Seeder) sentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = gofakeit.HipsterSentence()
	}
	return strings.Join(parts, " ")
}

func (s *Seeder) words(n int) models.StringList {
	out := make(models.StringList, n)
	for i := range out {
		out[i] = strings.ToLower(gofakeit.Word())
	}
	return out
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

func uniqueSlug(title string) string {
	return util.Slugify(title) + "-" + uuid.NewString()[:8]
}

func (s *Seeder) seedUsers(db *gorm.DB, count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) > 24 {
			username = username[:24]
		}
		username = fmt.Sprintf("%s%d", username, i)

		user := models.User{
			Username:       username,
			Email:          username + SeedDomain,
			PasswordHash:   string(hash),
			FirstName:      gofakeit.FirstName(),
			LastName:       gofakeit.LastName(),
			Role:           models.RolePatient,
			Bio:            gofakeit.HipsterSentence(),
			ProfilePicture: "https://api.dicebear.com/7.x/avataaars/png?seed=" + username,
			IsActive:       true,
		}
		// every fifth account is a doctor, most of them approved
		if i%5 == 0 {
			user.SetRole(models.RoleDoctor)
			user.IsVerified = true
			user.DoctorInfo.Specialization = s.pick(specializations)
			user.DoctorInfo.Hospital = gofakeit.City() + " General Hospital"
			user.DoctorInfo.Location = fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country())
			user.DoctorInfo.Experience = s.rng.Intn(30) + 1
			if s.rng.Intn(4) != 0 {
				approved := time.Now().UTC()
				user.DoctorInfo.ApprovalStatus = models.ApprovalApproved
				user.DoctorInfo.ApprovalDate = &approved
			}
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(db *gorm.DB, users []models.User) error {
	followers := make(map[string]int)
	following := make(map[string]int)
	for i := range users {
		for j := range users {
			if i == j || s.rng.Intn(4) != 0 {
				continue
			}
			follow := models.Follow{FollowerID: users[i].ID, FollowingID: users[j].ID}
			if err := db.Create(&follow).Error; err != nil {
				return err
			}
			following[users[i].ID]++
			followers[users[j].ID]++
		}
	}
	for _, u := range users {
		if err := db.Model(&models.User{}).Where("id = ?", u.ID).UpdateColumns(map[string]interface{}{
			"follower_count":  followers[u.ID],
			"following_count": following[u.ID],
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.rng.Intn(len(users))]
		title := strings.TrimSuffix(gofakeit.HipsterSentence(), ".")
		post := models.Post{
			AuthorID:      author.ID,
			Title:         title,
			Content:       s.sentences(s.rng.Intn(6) + 2),
			Category:      s.pick(models.PostCategories),
			Tags:          s.words(s.rng.Intn(3) + 1),
			IsAnonymous:   s.rng.Intn(8) == 0,
			MedicalAdvice: author.IsApprovedDoctor() && s.rng.Intn(2) == 0,
			Symptoms:      s.words(s.rng.Intn(3)),
			Views:         s.rng.Intn(500),
			Slug:          uniqueSlug(title),
		}
		post.CreatedAt = gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now())
		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedBlogs(db *gorm.DB, doctors []models.User, count int) ([]models.Blog, error) {
	blogs := make([]models.Blog, 0, count)
	for i := 0; i < count; i++ {
		author := doctors[s.rng.Intn(len(doctors))]
		title := strings.TrimSuffix(gofakeit.HipsterSentence(), ".")
		content := s.sentences(s.rng.Intn(40) + 10)
		blog := models.Blog{
			AuthorID:    author.ID,
			Title:       title,
			Content:     content,
			Excerpt:     util.Excerpt(content, 300),
			Category:    s.pick(models.BlogCategories),
			Tags:        s.words(s.rng.Intn(4) + 1),
			IsFeatured:  s.rng.Intn(5) == 0,
			ReadingTime: util.ReadingTime(content),
			Views:       s.rng.Intn(2000),
			Slug:        uniqueSlug(title),
		}
		if err := db.Create(&blog).Error; err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, nil
}

func (s *Seeder) seedComments(db *gorm.DB, users []models.User, posts []models.Post, count int) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	created := 0
	perPost := make(map[string]int)
	roots := make(map[string][]string)
	for i := 0; i < count; i++ {
		post := posts[s.rng.Intn(len(posts))]
		comment := models.Comment{
			TargetType: models.TargetPost,
			TargetID:   post.ID,
			AuthorID:   users[s.rng.Intn(len(users))].ID,
			Content:    gofakeit.HipsterSentence(),
		}
		parents := roots[post.ID]
		if len(parents) > 0 && s.rng.Intn(3) == 0 {
			parent := parents[s.rng.Intn(len(parents))]
			comment.ParentID = &parent
		}
		if err := db.Create(&comment).Error; err != nil {
			return created, err
		}
		if comment.ParentID != nil {
			if err := db.Model(&models.Comment{}).Where("id = ?", *comment.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
				return created, err
			}
		} else {
			roots[post.ID] = append(roots[post.ID], comment.ID)
		}
		perPost[post.ID]++
		created++
	}
	for id, n := range perPost {
		if err := db.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("comment_count", n).Error; err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *Seeder) seedEvents(db *gorm.DB, doctors, patients []models.User, count int) (int, error) {
	for i := 0; i < count; i++ {
		author := doctors[s.rng.Intn(len(doctors))]
		date := gofakeit.DateRange(time.Now().AddDate(0, 0, 1), time.Now().AddDate(0, 2, 0)).UTC()
		end := date.Add(2 * time.Hour)
		event := models.Event{
			Title:           strings.TrimSuffix(gofakeit.HipsterSentence(), "."),
			Description:     s.sentences(3),
			Category:        s.pick(models.EventCategories),
			Instructor:      author.FullName(),
			InstructorTitle: author.DoctorInfo.Specialization,
			Date:            date,
			EndDate:         &end,
			Location:        gofakeit.City(),
			MaxParticipants: s.rng.Intn(20) + 5,
			IsOnline:        s.rng.Intn(3) == 0,
			Organizer:       author.DoctorInfo.Hospital,
			OrganizerType:   "hospital",
			Tags:            s.words(2),
			Status:          models.EventActive,
			AuthorID:        author.ID,
		}
		if s.rng.Intn(4) == 0 {
			event.Status = models.EventPending
		}
		if err := db.Create(&event).Error; err != nil {
			return i, err
		}
		if event.Status != models.EventActive {
			continue
		}
		joined := 0
		for _, p := range patients {
			if joined >= event.MaxParticipants {
				break
			}
			if s.rng.Intn(3) != 0 {
				continue
			}
			participant := models.EventParticipant{EventID: event.ID, UserID: p.ID, Status: models.ParticipantConfirmed}
			if err := db.Create(&participant).Error; err != nil {
				return i, err
			}
			joined++
		}
		if err := db.Omit("Author", "Participants").Save(&event).Error; err != nil {
			return i, err
		}
	}
	return count, nil
}

func (s *Seeder) seedDiseases(db *gorm.DB, author models.User) (int, error) {
	created := 0
	for _, category := range models.DiseaseCategories {
		disease := models.Disease{
			Name:             fmt.Sprintf("%s %s", capitalize(gofakeit.Word()), strings.ReplaceAll(category, "-", " ")),
			Description:      s.sentences(2),
			Category:         category,
			Symptoms:         s.words(3),
			CommonTreatments: s.words(2),
			Severity:         s.pick(models.Severities),
			Prevalence:       s.pick(models.Prevalences),
			Tags:             s.words(2),
			IsActive:         true,
			CreatedByID:      author.ID,
		}
		if err := db.Create(&disease).Error; err != nil {
			if database.IsDuplicate(err) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *Seeder) seedHealth(db *gorm.DB, patients []models.User) (int, int, error) {
	diets, exercises := 0, 0
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, p := range patients {
		diet := models.Diet{
			UserID:    p.ID,
			Name:      capitalize(gofakeit.Word()) + " plan",
			Duration:  30,
			Period:    "daily",
			IsActive:  true,
			StartDate: today.AddDate(0, 0, -14),
		}
		if err := db.Create(&diet).Error; err != nil {
			return diets, exercises, err
		}
		diets++

		done := 0
		for d := 14; d > 0; d-- {
			if s.rng.Intn(3) == 0 {
				continue
			}
			completion := models.DietCompletion{DietID: diet.ID, CompletedAt: today.AddDate(0, 0, -d).Add(9 * time.Hour)}
			if err := db.Create(&completion).Error; err != nil {
				return diets, exercises, err
			}
			done++
		}
		if err := db.Model(&models.Diet{}).Where("id = ?", diet.ID).UpdateColumn("completed_count", done).Error; err != nil {
			return diets, exercises, err
		}

		for d := 0; d < 7; d++ {
			day := today.AddDate(0, 0, -d)
			entries := []models.Exercise{
				{UserID: p.ID, Title: "Meals", Type: models.ExerciseIncome, Calories: 1600 + s.rng.Intn(800), Date: day.Add(12 * time.Hour)},
				{UserID: p.ID, Title: "Walk", Type: models.ExerciseExpense, Calories: 150 + s.rng.Intn(350), Duration: 30 + s.rng.Intn(60), Date: day.Add(18 * time.Hour), Time: "18:00"},
			}
			if err := db.Create(&entries).Error; err != nil {
				return diets, exercises, err
			}
			exercises += len(entries)
		}
	}
	return diets, exercises, nil
}

// Clean removes seeded accounts and everything they own
func (s *Seeder) Clean(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	var ids []string
	if err := db.Model(&models.User{}).Where("email LIKE ?", "%"+SeedDomain).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		byAuthor := tx.Model(&models.Post{}).Select("id").Where("author_id IN ?", ids)
		byBlogAuthor := tx.Model(&models.Blog{}).Select("id").Where("author_id IN ?", ids)
		byEventAuthor := tx.Model(&models.Event{}).Select("id").Where("author_id IN ?", ids)
		byDiet := tx.Model(&models.Diet{}).Select("id").Where("user_id IN ?", ids)

		steps := []struct {
			model interface{}
			where string
			args  []interface{}
		}{
			{&models.Comment{}, "author_id IN ? OR target_id IN (?) OR target_id IN (?)", []interface{}{ids, byAuthor, byBlogAuthor}},
			{&models.Reaction{}, "user_id IN ?", []interface{}{ids}},
			{&models.ContentReport{}, "reporter_id IN ?", []interface{}{ids}},
			{&models.Notification{}, "recipient_id IN ? OR sender_id IN ?", []interface{}{ids, ids}},
			{&models.EventParticipant{}, "user_id IN ? OR event_id IN (?)", []interface{}{ids, byEventAuthor}},
			{&models.EventPost{}, "author_id IN ? OR event_id IN (?)", []interface{}{ids, byEventAuthor}},
			{&models.Event{}, "author_id IN ?", []interface{}{ids}},
			{&models.Post{}, "author_id IN ?", []interface{}{ids}},
			{&models.Blog{}, "author_id IN ?", []interface{}{ids}},
			{&models.Disease{}, "created_by_id IN ?", []interface{}{ids}},
			{&models.DietCompletion{}, "diet_id IN (?)", []interface{}{byDiet}},
			{&models.Diet{}, "user_id IN ?", []interface{}{ids}},
			{&models.Exercise{}, "user_id IN ?", []interface{}{ids}},
			{&models.Follow{}, "follower_id IN ? OR following_id IN ?", []interface{}{ids, ids}},
			{&models.User{}, "id IN ?", []interface{}{ids}},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, step.args...).Delete(step.model).Error; err != nil {
				return err
			}
		}
		logger.Log.Info("Removed seed data", zap.Int("users", len(ids)))
		return nil
	})
}
