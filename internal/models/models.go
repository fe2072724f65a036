package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	TargetBlog    = "blog"
	TargetComment = "comment"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Avatar       string    `json:"avatar"`
	Role         string    `gorm:"not null;default:'USER'" json:"role"`
	Deleted      bool      `gorm:"not null;default:false"   json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey"           json:"-"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Template struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	Title        string    `gorm:"not null"                              json:"title"`
	Explanation  string    `json:"explanation"`
	Code         string    `gorm:"not null"                              json:"code"`
	Language     string    `gorm:"not null"                              json:"language"`
	Tags         []Tag     `gorm:"many2many:template_tags;"              json:"tags"`
	AuthorID     uint      `gorm:"index;not null"                        json:"authorId"`
	Author       User      `gorm:"foreignKey:AuthorID"                   json:"author"`
	ForkedFromID *uint     `gorm:"index"                                 json:"forkedFromId,omitempty"`
	Deleted      bool      `gorm:"not null;default:false"                json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type BlogPost struct {
	ID          uint       `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title       string     `gorm:"not null"                  json:"title"`
	Description string     `json:"description"`
	Content     string     `gorm:"not null"                  json:"content"`
	Tags        []Tag      `gorm:"many2many:blog_post_tags;" json:"tags"`
	Templates   []Template `gorm:"many2many:blog_post_templates;" json:"templates"`
	AuthorID    uint       `gorm:"index;not null"            json:"authorId"`
	Author      User       `gorm:"foreignKey:AuthorID"       json:"author"`
	Upvotes     int        `gorm:"not null;default:0"        json:"upvotes"`
	Downvotes   int        `gorm:"not null;default:0"        json:"downvotes"`
	ReportCount int        `gorm:"not null;default:0;index"  json:"reportCount"`
	Hidden      bool       `gorm:"not null;default:false"    json:"hidden"`
	Deleted     bool       `gorm:"not null;default:false"    json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// MyVote is the requesting user's vote, filled only for signed-in reads.
	MyVote *int `gorm:"-" json:"myVote,omitempty"`
}

type Comment struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content     string    `gorm:"not null"                 json:"content"`
	AuthorID    uint      `gorm:"index;not null"           json:"authorId"`
	Author      User      `gorm:"foreignKey:AuthorID"      json:"author"`
	BlogPostID  uint      `gorm:"index;not null"           json:"blogPostId"`
	ParentID    *uint     `gorm:"index"                    json:"parentId,omitempty"`
	Upvotes     int       `gorm:"not null;default:0"       json:"upvotes"`
	Downvotes   int       `gorm:"not null;default:0"       json:"downvotes"`
	ReportCount int       `gorm:"not null;default:0;index" json:"reportCount"`
	Hidden      bool      `gorm:"not null;default:false"   json:"hidden"`
	Deleted     bool      `gorm:"not null;default:false"   json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Interaction is one user's vote on a blog post or comment.
type Interaction struct {
	ID         uint      `gorm:"primaryKey"                                      json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_interaction_target"     json:"userId"`
	TargetType string    `gorm:"not null;uniqueIndex:idx_interaction_target"     json:"targetType"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_interaction_target"     json:"targetId"`
	Value      int       `gorm:"not null"                                        json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Report struct {
	ID         uint      `gorm:"primaryKey"                                 json:"id"`
	ReporterID uint      `gorm:"not null;uniqueIndex:idx_report_target"     json:"reporterId"`
	Reporter   User      `gorm:"foreignKey:ReporterID"                      json:"reporter"`
	TargetType string    `gorm:"not null;uniqueIndex:idx_report_target"     json:"targetType"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_report_target"     json:"targetId"`
	Reason     string    `gorm:"not null"                                   json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Template{},
		&BlogPost{},
		&Comment{},
		&Interaction{},
		&Report{},
	}
}

func TagNames(tags []Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}
