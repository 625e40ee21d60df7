package model

type Bot struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Deleted bool              `json:"deleted,omitempty"`
	AppID   string            `json:"app_id,omitempty"`
	Icons   map[string]string `json:"icons,omitempty"`
}

// UserGroup is a subteam
type UserGroup struct {
	ID          string   `json:"id"`
	TeamID      string   `json:"team_id,omitempty"`
	Name        string   `json:"name"`
	Handle      string   `json:"handle,omitempty"`
	Description string   `json:"description,omitempty"`
	IsExternal  bool     `json:"is_external,omitempty"`
	DateCreate  int64    `json:"date_create,omitempty"`
	DateUpdate  int64    `json:"date_update,omitempty"`
	DateDelete  int64    `json:"date_delete,omitempty"`
	CreatedBy   string   `json:"created_by,omitempty"`
	UpdatedBy   string   `json:"updated_by,omitempty"`
	Users       []string `json:"users,omitempty"`
	UserCount   int      `json:"user_count,omitempty"`
}
