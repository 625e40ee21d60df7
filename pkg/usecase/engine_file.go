package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/m-mizutani/goerr/v2"
)

func (e *Engine) file(id string) (*model.File, error) {
	if id == "" {
		return nil, missing("event has no file")
	}
	f := e.store.File(id)
	if f == nil {
		return nil, missing("file not found", goerr.V(FileIDKey, id))
	}
	return f, nil
}

// planFilePosted upserts the file. Comments already known for the file are
// kept, and the initial comment is only merged if its ID is not present yet.
// An ID-only payload refreshes nothing on a known file.
func (e *Engine) planFilePosted(ev rtm.FilePosted) (*step, error) {
	if ev.File == nil || ev.File.ID == "" {
		return nil, missing("file event has no file id")
	}
	prev := e.store.File(ev.File.ID)
	if prev != nil && isFileReference(ev.File) {
		return &step{change: changed(model.ChangeFile, prev.ID, ""), apply: func() {}}, nil
	}

	next := *ev.File
	return &step{
		change: changed(model.ChangeFile, next.ID, ""),
		apply: func() {
			next.Comments = nil
			if prev != nil {
				next.Comments = prev.Comments
			}
			if ic := next.InitialComment; ic != nil && ic.ID != "" && next.Comment(ic.ID) == nil {
				c := *ic
				next.PutComment(&c)
			}
			e.store.PutFile(&next)
		},
	}, nil
}

func isFileReference(f *model.File) bool {
	return f.Name == "" && f.Title == "" && f.User == "" && f.Mimetype == "" &&
		f.Created == 0 && f.URLPrivate == "" && f.Permalink == ""
}

func (e *Engine) planFilePrivate(ev rtm.FilePrivate) (*step, error) {
	f, err := e.file(ev.FileID)
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeFile, f.ID, ""),
		apply:  func() { f.IsPublic = false },
	}, nil
}

func (e *Engine) planFileDeleted(ev rtm.FileDeleted) (*step, error) {
	if ev.FileID == "" {
		return nil, missing("event has no file")
	}
	return &step{
		change: changed(model.ChangeFile, ev.FileID, ""),
		apply:  func() { e.store.DeleteFile(ev.FileID) },
	}, nil
}

func (e *Engine) planFileComment(ev rtm.FileComment) (*step, error) {
	f, err := e.file(ev.FileID)
	if err != nil {
		return nil, err
	}
	commentID := ev.CommentID
	if commentID == "" && ev.Comment != nil {
		commentID = ev.Comment.ID
	}
	if commentID == "" {
		return nil, missing("comment event has no comment id", goerr.V(FileIDKey, f.ID))
	}
	change := changed(model.ChangeComment, f.ID, commentID)

	switch ev.Action {
	case rtm.CommentAdded:
		if ev.Comment == nil {
			return nil, missing("added comment has no body", goerr.V(FileIDKey, f.ID))
		}
		c := *ev.Comment
		c.ID = commentID
		return &step{change: change, apply: func() { f.PutComment(&c) }}, nil

	case rtm.CommentEdited:
		cur := f.Comment(commentID)
		if cur == nil || ev.Comment == nil {
			return nil, missing("edited comment not found",
				goerr.V(FileIDKey, f.ID),
				goerr.V("comment_id", commentID))
		}
		body := ev.Comment.Comment
		return &step{change: change, apply: func() { cur.Comment = body }}, nil

	case rtm.CommentDeleted:
		if f.Comment(commentID) == nil {
			return nil, missing("deleted comment not found",
				goerr.V(FileIDKey, f.ID),
				goerr.V("comment_id", commentID))
		}
		return &step{change: change, apply: func() { delete(f.Comments, commentID) }}, nil
	}

	return nil, missing("unknown comment action", goerr.V("action", ev.Action))
}
