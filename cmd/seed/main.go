package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"blogsphere/pkg/config"
	"blogsphere/pkg/database"
	"blogsphere/pkg/logger"
	"blogsphere/pkg/models"
	"blogsphere/pkg/s3"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedPost struct {
	title      string
	body       string
	visibility models.Visibility
	withImage  bool
}

type seedUser struct {
	email     string
	name      string
	password  string
	isPremium bool
	posts     []seedPost
}

// alice sits exactly at the free-tier limit, bob is premium past it and carol
// has room left.
var seedUsers = []seedUser{
	{
		email: "alice@test.com", name: "Alice", password: "password123",
		posts: []seedPost{
			{"Hello, BlogSphere", "<p>My first post.</p>", models.VisibilityPublic, true},
			{"Draft ideas", "<p>Notes to self.</p>", models.VisibilityPrivate, false},
			{"Weekend trip", "<p>We walked along the river.</p>", models.VisibilityPublic, false},
			{"Reading list", "<p>Three books for the autumn.</p>", models.VisibilityPublic, false},
			{"Diary", "<p>Private thoughts.</p>", models.VisibilityPrivate, false},
		},
	},
	{
		email: "bob@test.com", name: "Bob", password: "password123", isPremium: true,
		posts: []seedPost{
			{"Premium perks", "<p>No more post limit.</p>", models.VisibilityPublic, true},
			{"Go tips", "<p>Accept interfaces, return structs.</p>", models.VisibilityPublic, false},
			{"Cooking", "<p>A simple risotto.</p>", models.VisibilityPublic, false},
			{"Running log", "<p>10k in 52 minutes.</p>", models.VisibilityPrivate, false},
			{"Photography", "<p>Shooting at golden hour.</p>", models.VisibilityPublic, true},
			{"Year in review", "<p>What went well.</p>", models.VisibilityPublic, false},
		},
	},
	{
		email: "carol@test.com", name: "Carol", password: "password123",
		posts: []seedPost{
			{"Just joined", "<p>Hi everyone!</p>", models.VisibilityPublic, false},
			{"Secret plans", "<p>Not telling.</p>", models.VisibilityPrivate, false},
		},
	},
}

func main() {
	var withImages bool
	flag.BoolVar(&withImages, "images", true, "upload a demo image for posts that embed one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	var s3Client *s3.Client
	if withImages {
		s3Client, err = s3.NewClient(cfg)
		if err != nil {
			log.Warn("Failed to create S3 client: %v (seeding without images)", err)
			s3Client = nil
		}
	}

	if err := seedDatabase(db, s3Client, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, s3Client *s3.Client, log *logger.Logger) error {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	for _, userData := range seedUsers {
		var existingUser models.User
		if err := db.Where("email = ?", userData.email).First(&existingUser).Error; err == nil {
			log.Info("User %s already exists, skipping", userData.email)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userData.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := &models.User{
			Name:      userData.name,
			Email:     userData.email,
			Password:  string(hashedPassword),
			IsPremium: userData.isPremium,
		}
		if err := db.Create(user).Error; err != nil {
			log.Error("Failed to create user %s: %v", userData.email, err)
			continue
		}
		log.Info("Created user: %s (premium=%t)", user.Email, user.IsPremium)

		for i, p := range userData.posts {
			if err := createPost(db, s3Client, httpClient, user, p, i, log); err != nil {
				log.Error("Failed to create post %d for %s: %v", i+1, user.Email, err)
			}
		}
	}

	return nil
}

func createPost(db *gorm.DB, s3Client *s3.Client, httpClient *http.Client, user *models.User, p seedPost, index int, log *logger.Logger) error {
	post := &models.Post{
		UserID:     user.ID,
		Title:      p.title,
		Content:    p.body,
		Visibility: p.visibility,
	}

	var image *models.PostImage
	if p.withImage && s3Client != nil {
		var err error
		image, err = uploadDemoImage(s3Client, httpClient, user, index, log)
		if err != nil {
			log.Warn("Skipping image for %q: %v", p.title, err)
		} else {
			post.Content += fmt.Sprintf(`<p><img src="%s" alt="%s"></p>`, image.ImageURL, p.title)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if image != nil {
			image.PostID = &post.ID
			if err := tx.Create(image).Error; err != nil {
				return fmt.Errorf("failed to record post image: %w", err)
			}
		}
		log.Info("Created %s post: %s by %s", post.Visibility, post.Title, user.Email)
		return nil
	})
}

func uploadDemoImage(s3Client *s3.Client, httpClient *http.Client, user *models.User, index int, log *logger.Logger) (*models.PostImage, error) {
	imageURL := fmt.Sprintf("https://cataas.com/cat/says/Hello from %s", user.Name)

	log.Info("Fetching demo image from %s", imageURL)
	resp, err := httpClient.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image source returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("received empty image data")
	}

	fileKey := fmt.Sprintf("posts/%s/seed_%d.jpg", user.ID, index)
	url, err := s3Client.UploadFile(fileKey, bytes.NewReader(imageData), "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return &models.PostImage{
		UserID:    user.ID,
		ObjectKey: fileKey,
		ImageURL:  url,
	}, nil
}
