package model

// File is an uploaded file. Comments are keyed by comment ID.
type File struct {
	ID             string              `json:"id"`
	Name           string              `json:"name,omitempty"`
	Title          string              `json:"title,omitempty"`
	User           string              `json:"user,omitempty"`
	Mimetype       string              `json:"mimetype,omitempty"`
	Filetype       string              `json:"filetype,omitempty"`
	Size           int                 `json:"size,omitempty"`
	Created        int64               `json:"created,omitempty"`
	URLPrivate     string              `json:"url_private,omitempty"`
	Permalink      string              `json:"permalink,omitempty"`
	IsPublic       bool                `json:"is_public,omitempty"`
	IsStarred      bool                `json:"is_starred,omitempty"`
	Stars          int                 `json:"num_stars,omitempty"`
	Channels       []string            `json:"channels,omitempty"`
	Comments       map[string]*Comment `json:"comments,omitempty"`
	InitialComment *Comment            `json:"initial_comment,omitempty"`
	Reactions      []Reaction          `json:"reactions,omitempty"`
}

// PutComment stores comment under its ID
func (f *File) PutComment(comment *Comment) {
	if f.Comments == nil {
		f.Comments = make(map[string]*Comment)
	}
	f.Comments[comment.ID] = comment
}

func (f *File) Comment(id string) *Comment {
	return f.Comments[id]
}

// Star flips the star flag on and increments the star count
func (f *File) Star() {
	f.IsStarred = true
	f.Stars++
}

// Unstar flips the star flag off and decrements the star count if positive.
// It reports false when the count was already zero.
func (f *File) Unstar() bool {
	f.IsStarred = false
	if f.Stars <= 0 {
		f.Stars = 0
		return false
	}
	f.Stars--
	return true
}

// Comment is a comment owned by exactly one File
type Comment struct {
	ID        string     `json:"id"`
	User      string     `json:"user,omitempty"`
	Comment   string     `json:"comment"`
	Created   int64      `json:"created,omitempty"`
	Timestamp int64      `json:"timestamp,omitempty"`
	IsStarred bool       `json:"is_starred,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}
