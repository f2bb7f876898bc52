package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedInterests = []Interest{
	{Name: "hiking", Category: "outdoors"},
	{Name: "climbing", Category: "outdoors"},
	{Name: "cycling", Category: "outdoors"},
	{Name: "cooking", Category: "food"},
	{Name: "wine", Category: "food"},
	{Name: "jazz", Category: "music"},
	{Name: "techno", Category: "music"},
	{Name: "cinema", Category: "culture"},
	{Name: "museums", Category: "culture"},
	{Name: "yoga", Category: "sport"},
	{Name: "running", Category: "sport"},
	{Name: "photography", Category: "creative"},
}

// SeedTestData resets the database and populates it with demo users,
// profiles, interests, preferences and swipes.
//
// Behavior:
//  1. Clears all engine tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, birth
//     dates in the 22-40 range, profiles scattered around central London
//     (a few with no coordinates) and preferences for the opposite gender.
//  3. Generates swipes with ~70% likes; every 3rd pair is forced mutual so
//     matches exist, and each fresh match gets a short seeded conversation.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now().UTC()

	// --- Fresh start ---
	for _, table := range []string{"messages", "matches", "swipes", "user_interests", "preferences", "profiles", "interests", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range []string{"messages", "matches", "interests", "users"} {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence")
	}

	log.Println("Cleared existing data")

	// --- Interests catalog ---
	interests := make([]Interest, len(seedInterests))
	copy(interests, seedInterests)
	if err := db.Create(&interests).Error; err != nil {
		return fmt.Errorf("failed to seed interests: %w", err)
	}

	// --- Users, profiles, preferences, interest memberships ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender, wants := "male", "female"
		if i > 10 {
			gender, wants = "female", "male"
		}

		age := 22 + r.Intn(19) // 22..40
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			BirthDate:    now.AddDate(-age, 0, -r.Intn(300)),
			City:         "London",
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		profile := Profile{
			UserID:     user.ID,
			Bio:        fmt.Sprintf("Hi, I'm user%d.", i),
			HeightCm:   155 + r.Intn(45),
			Occupation: "engineer",
			Education:  "university",
		}
		// leave roughly every 7th profile without a location
		if i%7 != 0 {
			lat := 51.5074 + (r.Float64()-0.5)*0.6
			lng := -0.1278 + (r.Float64()-0.5)*0.6
			profile.Latitude = &lat
			profile.Longitude = &lng
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		pref := Preference{
			UserID:        user.ID,
			Gender:        wants,
			MinAge:        20,
			MaxAge:        45,
			MaxDistanceKm: 50,
		}
		if err := db.Create(&pref).Error; err != nil {
			return fmt.Errorf("failed to seed preference: %w", err)
		}

		// 3-5 random interests each
		picked := r.Perm(len(interests))[:3+r.Intn(3)]
		for _, idx := range picked {
			membership := UserInterest{UserID: user.ID, InterestID: interests[idx].ID}
			if err := db.Create(&membership).Error; err != nil {
				return fmt.Errorf("failed to seed user interest: %w", err)
			}
		}
	}
	log.Println("Seeded 20 users with profiles, preferences and interests.")

	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return err
	}

	// --- Swipes, matches, conversations ---
	counter := 0
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}
	for _, swiper := range users {
		for j := 0; j < 8; j++ {
			target := users[r.Intn(len(users))]
			if swiper.ID == target.ID || swiper.Gender == target.Gender {
				continue
			}

			typ := SwipeDislike
			if r.Intn(100) < 70 {
				typ = SwipeLike
			}
			if r.Intn(10) == 0 {
				typ = SwipeSuperLike
			}

			mutual := counter%3 == 0
			if mutual {
				typ = SwipeLike
				recip := Swipe{SwiperID: target.ID, TargetID: swiper.ID, Type: SwipeLike}
				if err := db.Clauses(upsert).Create(&recip).Error; err != nil {
					return fmt.Errorf("failed to seed reciprocal swipe: %w", err)
				}
			}

			swipe := Swipe{SwiperID: swiper.ID, TargetID: target.ID, Type: typ}
			if err := db.Clauses(upsert).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}

			if mutual {
				match := NewMatch(swiper.ID, target.ID, now)
				res := db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
					DoNothing: true,
				}).Create(&match)
				if res.Error != nil {
					return fmt.Errorf("failed to seed match: %w", res.Error)
				}
				if res.RowsAffected > 0 {
					opener := Message{
						MatchID:  match.ID,
						SenderID: swiper.ID,
						Content:  "Hey! We matched.",
						SentAt:   now.Add(time.Duration(r.Intn(60)) * time.Minute),
					}
					if err := db.Create(&opener).Error; err != nil {
						return fmt.Errorf("failed to seed message: %w", err)
					}
				}
			}

			counter++
		}
	}

	log.Println("Seeding completed.")
	return nil
}
