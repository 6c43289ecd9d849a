package entity

import (
	"time"

	"github.com/google/uuid"
)

// Avatar holds pass-through references to externally stored media.
type Avatar struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"-"`
}

// User is a stored user document. Followers and Following mirror each
// other: for every committed state, A in B.Followers iff B in A.Following.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email" json:"email"`
	FullName     string    `bson:"fullName" json:"fullName"`
	Password     string    `bson:"password" json:"-"`
	Avatar       Avatar    `bson:"avatar" json:"avatar"`
	RefreshToken string    `bson:"refreshToken,omitempty" json:"-"`
	Followers    IDSet     `bson:"followers" json:"-"`
	Following    IDSet     `bson:"following" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Post is a stored post document. Comments is the ordered list of comment
// ids whose PostID points back at this post; the two sides of that link are
// only ever written together.
type Post struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	Message   string    `bson:"message" json:"message"`
	Likes     IDSet     `bson:"likes" json:"-"`
	Comments  []string  `bson:"comments" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Comment is a stored comment document. It exists only while its parent
// post does.
type Comment struct {
	ID        string    `bson:"_id" json:"id"`
	PostID    string    `bson:"postId" json:"postId"`
	Owner     string    `bson:"owner" json:"owner"`
	Text      string    `bson:"commentText" json:"commentText"`
	Likes     IDSet     `bson:"likes" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MaxCommentLength bounds comment text, matching the stored schema.
const MaxCommentLength = 650

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	out := *u
	out.Followers = u.Followers.Clone()
	out.Following = u.Following.Clone()
	return &out
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	out := *p
	out.Likes = p.Likes.Clone()
	if p.Comments != nil {
		out.Comments = make([]string, len(p.Comments))
		copy(out.Comments, p.Comments)
	}
	return &out
}

// Clone returns a deep copy of the comment.
func (c *Comment) Clone() *Comment {
	out := *c
	out.Likes = c.Likes.Clone()
	return &out
}

// AppendComment links a comment id onto the post. Reports whether the id
// was not already present.
func (p *Post) AppendComment(commentID string) bool {
	for _, id := range p.Comments {
		if id == commentID {
			return false
		}
	}
	p.Comments = append(p.Comments, commentID)
	return true
}

// DetachComment unlinks a comment id from the post. Reports whether the id
// was present.
func (p *Post) DetachComment(commentID string) bool {
	for i, id := range p.Comments {
		if id == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return true
		}
	}
	return false
}
