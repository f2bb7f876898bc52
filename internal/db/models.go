package db

import (
	"time"
)

// SwipeType is the directional decision a user records on another user.
type SwipeType string

const (
	SwipeLike      SwipeType = "like"
	SwipeDislike   SwipeType = "dislike"
	SwipeSuperLike SwipeType = "super_like"
)

// IsPositive reports whether the swipe counts toward a mutual match.
// A super like behaves as a like for match purposes.
func (t SwipeType) IsPositive() bool {
	return t == SwipeLike || t == SwipeSuperLike
}

// Valid reports whether t is one of the known swipe types.
func (t SwipeType) Valid() bool {
	switch t {
	case SwipeLike, SwipeDislike, SwipeSuperLike:
		return true
	}
	return false
}

// User table. Owned by the account subsystem; the engine reads it and
// references users by id everywhere else. Age is always derived from
// BirthDate at query time, never stored.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Gender       string `gorm:"size:16;not null;index"`
	BirthDate    time.Time
	City         string    `gorm:"size:64"`
	Active       bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Age returns the user's age in whole years at the given instant.
func (u *User) Age(now time.Time) int {
	return AgeAt(u.BirthDate, now)
}

// AgeAt computes whole years between birth and now.
func AgeAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	anniversary := birth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// Profile is the one-to-one extension of User. Latitude/Longitude are
// nullable: a missing location means distance is unknown, never zero.
type Profile struct {
	UserID     uint64 `gorm:"primaryKey"`
	Bio        string `gorm:"size:1024"`
	HeightCm   int
	Occupation string `gorm:"size:128"`
	Education  string `gorm:"size:128"`
	Latitude   *float64
	Longitude  *float64
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// HasLocation reports whether both coordinates are present.
func (p *Profile) HasLocation() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// Interest is a tag with a category, shared across users.
type Interest struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"uniqueIndex;size:64;not null"`
	Category string `gorm:"size:32;not null"`
}

// UserInterest is the many-to-many join between users and interests.
// Composite PK keeps membership unique; interest_id is indexed for the
// common-interest intersection query.
type UserInterest struct {
	UserID     uint64 `gorm:"primaryKey"`
	InterestID uint64 `gorm:"primaryKey;index"`
}

// Preference holds a user's hard matching constraints. Exactly one row per
// user; absence means ranking is impossible (fail closed, never default).
type Preference struct {
	UserID        uint64    `gorm:"primaryKey"`
	Gender        string    `gorm:"size:16;not null"`
	MinAge        int       `gorm:"not null"`
	MaxAge        int       `gorm:"not null"`
	MaxDistanceKm int       `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Swipe records a directional decision by swiper on target.
//
// Composite PK: (SwiperID, TargetID)
//   - Ensures a single row per direction (re-swipe overwrites, see repo).
//
// Indexes:
//   - idx_target_type_updated_swiper(target_id, type, updated_at DESC, swiper_id)
//     Optimizes "who liked me" listings with pagination.
//   - idx_swiper_target_type(swiper_id, target_id, type)
//     Optimizes O(1) lookup for mutual like checks.
type Swipe struct {
	SwiperID  uint64    `gorm:"primaryKey;index:idx_swiper_target_type,priority:1"`
	TargetID  uint64    `gorm:"primaryKey;index:idx_target_type_updated_swiper,priority:1;index:idx_swiper_target_type,priority:2"`
	Type      SwipeType `gorm:"size:16;not null;index:idx_target_type_updated_swiper,priority:2;index:idx_swiper_target_type,priority:3"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_target_type_updated_swiper,priority:3,sort:desc"`
}

// Match is the mutually-confirmed pairing of two users.
//
// The pair is stored canonically with UserAID < UserBID and carries a unique
// index on (user_a_id, user_b_id): at most one row ever exists per unordered
// pair, which is the invariant the swipe race defends. Construct via
// NewMatch; never write the fields directly.
type Match struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	UserAID     uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID     uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	Active      bool   `gorm:"not null"`
	MatchedAt   time.Time
	UnmatchedAt *time.Time
}

// NewMatch builds an active match for the unordered pair {u1, u2},
// canonicalizing the id order. Active is set here, not by a column default,
// so an uninitialized Match can never be observed as valid.
func NewMatch(u1, u2 uint64, matchedAt time.Time) Match {
	a, b := u1, u2
	if a > b {
		a, b = b, a
	}
	return Match{
		UserAID:   a,
		UserBID:   b,
		Active:    true,
		MatchedAt: matchedAt,
	}
}

// Involves reports whether userID is one of the match's two users.
func (m *Match) Involves(userID uint64) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// Partner returns the other side of the match relative to userID.
// ok is false when userID is not a member.
func (m *Match) Partner(userID uint64) (uint64, bool) {
	switch userID {
	case m.UserAID:
		return m.UserBID, true
	case m.UserBID:
		return m.UserAID, true
	}
	return 0, false
}

// MaxMessageLen bounds message content, in runes.
const MaxMessageLen = 2000

// Message belongs to exactly one Match; sender must be one of the match's
// two users. ReadAt is set only when IsRead transitions to true. Messages
// are hard-deleted only on match purge or retention; unmatch retains them.
type Message struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	MatchID  uint64 `gorm:"not null;index;index:idx_match_read,priority:1"`
	SenderID uint64 `gorm:"not null;index;index:idx_match_read,priority:2"`
	Content  string `gorm:"size:2000;not null"`
	IsRead   bool   `gorm:"not null;index:idx_match_read,priority:3"`
	SentAt   time.Time
	ReadAt   *time.Time
}
