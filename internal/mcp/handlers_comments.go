package mcp

import (
	"context"
	"net/http"

	"github.com/HyphaGroup/adgate/internal/validation"
)

const (
	commentFields = "id,message,from,created_time,like_count,comment_count,is_hidden"
	// maxBulkItems caps one bulk moderation call
	maxBulkItems = 50
)

type PostCommentsParams struct {
	PostID string `json:"postId" jsonschema:"Post id in pageId_postId form"`
	Order  string `json:"order,omitempty" jsonschema:"chronological or reverse_chronological"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of comments to return (1-100, default 25)"`
}

func (s *Server) handleGetPostComments(ctx context.Context, call *Call, params PostCommentsParams) (map[string]any, error) {
	if err := requireObjectID("postId", params.PostID); err != nil {
		return nil, err
	}
	query := map[string]any{
		"fields": commentFields,
		"limit":  clampLimit(params.Limit),
	}
	if params.Order != "" {
		if err := oneOf("order", params.Order, "chronological", "reverse_chronological"); err != nil {
			return nil, err
		}
		query["order"] = params.Order
	}

	body, err := s.upstreamWithFallback(ctx, call, params.PostID, http.MethodGet, params.PostID+"/comments", query)
	if err != nil {
		return nil, err
	}
	out := listPayload(body, "comments")
	out["postId"] = params.PostID
	out["pageId"] = validation.ParseCompositeID(params.PostID).OwnerID
	return out, nil
}

// commentTarget picks the id whose owner token backs a comment operation:
// an explicit page id, or the comment id itself.
func commentTarget(pageID, commentID string) (string, error) {
	if pageID == "" {
		return commentID, nil
	}
	if err := requireObjectID("pageId", pageID); err != nil {
		return "", err
	}
	return pageID, nil
}

type ReplyToCommentParams struct {
	CommentID string `json:"commentId" jsonschema:"Comment id"`
	Message   string `json:"message" jsonschema:"Reply text"`
	PageID    string `json:"pageId,omitempty" jsonschema:"Page that owns the comment, when the comment id does not start with it"`
}

func (s *Server) replyToComment(ctx context.Context, call *Call, pageID, commentID, message string) (map[string]any, error) {
	if err := requireObjectID("commentId", commentID); err != nil {
		return nil, err
	}
	if err := requireText("message", message); err != nil {
		return nil, err
	}
	target, err := commentTarget(pageID, commentID)
	if err != nil {
		return nil, err
	}
	return s.upstreamWithFallback(ctx, call, target, http.MethodPost, commentID+"/comments", map[string]any{
		"message": message,
	})
}

func (s *Server) handleReplyToComment(ctx context.Context, call *Call, params ReplyToCommentParams) (map[string]any, error) {
	resp, err := s.replyToComment(ctx, call, params.PageID, params.CommentID, params.Message)
	if err != nil {
		return nil, err
	}
	return map[string]any{"replyId": resp["id"], "commentId": params.CommentID}, nil
}

type HideCommentParams struct {
	CommentID string `json:"commentId" jsonschema:"Comment id"`
	Hidden    *bool  `json:"hidden,omitempty" jsonschema:"true to hide, false to unhide (default true)"`
	PageID    string `json:"pageId,omitempty" jsonschema:"Page that owns the comment, when the comment id does not start with it"`
}

func (s *Server) handleHideComment(ctx context.Context, call *Call, params HideCommentParams) (map[string]any, error) {
	if err := requireObjectID("commentId", params.CommentID); err != nil {
		return nil, err
	}
	target, err := commentTarget(params.PageID, params.CommentID)
	if err != nil {
		return nil, err
	}
	hidden := true
	if params.Hidden != nil {
		hidden = *params.Hidden
	}

	if _, err := s.upstreamWithFallback(ctx, call, target, http.MethodPost, params.CommentID, map[string]any{
		"is_hidden": hidden,
	}); err != nil {
		return nil, err
	}
	return map[string]any{"commentId": params.CommentID, "hidden": hidden}, nil
}

type DeleteCommentParams struct {
	CommentID string `json:"commentId" jsonschema:"Comment id"`
	PageID    string `json:"pageId,omitempty" jsonschema:"Page that owns the comment, when the comment id does not start with it"`
}

func (s *Server) deleteComment(ctx context.Context, call *Call, pageID, commentID string) error {
	if err := requireObjectID("commentId", commentID); err != nil {
		return err
	}
	target, err := commentTarget(pageID, commentID)
	if err != nil {
		return err
	}
	_, err = s.upstreamWithFallback(ctx, call, target, http.MethodDelete, commentID, nil)
	return err
}

func (s *Server) handleDeleteComment(ctx context.Context, call *Call, params DeleteCommentParams) (map[string]any, error) {
	if err := s.deleteComment(ctx, call, params.PageID, params.CommentID); err != nil {
		return nil, err
	}
	return map[string]any{"commentId": params.CommentID, "deleted": true}, nil
}

// bulkItem is one entry of a bulk moderation report
type bulkItem struct {
	CommentID string `json:"commentId"`
	Success   bool   `json:"success"`
	ReplyID   any    `json:"replyId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func bulkReport(items []bulkItem) map[string]any {
	succeeded := 0
	for _, item := range items {
		if item.Success {
			succeeded++
		}
	}
	return map[string]any{
		"results":   items,
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    len(items) - succeeded,
	}
}

func checkBulkSize(field string, n int) error {
	switch {
	case n == 0:
		return argError(field, "%s must not be empty", field)
	case n > maxBulkItems:
		return argError(field, "%s accepts at most %d items, got %d", field, maxBulkItems, n)
	}
	return nil
}

type CommentReply struct {
	CommentID string `json:"commentId" jsonschema:"Comment id"`
	Message   string `json:"message" jsonschema:"Reply text"`
}

type BulkReplyParams struct {
	Replies []CommentReply `json:"replies" jsonschema:"Replies to post, one per comment"`
	PageID  string         `json:"pageId,omitempty" jsonschema:"Page that owns the comments"`
}

func (s *Server) handleBulkReplyToComments(ctx context.Context, call *Call, params BulkReplyParams) (map[string]any, error) {
	if err := checkBulkSize("replies", len(params.Replies)); err != nil {
		return nil, err
	}

	items := make([]bulkItem, 0, len(params.Replies))
	for _, reply := range params.Replies {
		item := bulkItem{CommentID: reply.CommentID}
		resp, err := s.replyToComment(ctx, call, params.PageID, reply.CommentID, reply.Message)
		if err != nil {
			item.Error = SanitizeError(err, "reply")
		} else {
			item.Success = true
			item.ReplyID = resp["id"]
		}
		items = append(items, item)
	}
	return bulkReport(items), nil
}

type BulkDeleteParams struct {
	CommentIDs []string `json:"commentIds" jsonschema:"Comments to delete"`
	PageID     string   `json:"pageId,omitempty" jsonschema:"Page that owns the comments"`
}

func (s *Server) handleBulkDeleteComments(ctx context.Context, call *Call, params BulkDeleteParams) (map[string]any, error) {
	if err := checkBulkSize("commentIds", len(params.CommentIDs)); err != nil {
		return nil, err
	}

	items := make([]bulkItem, 0, len(params.CommentIDs))
	for _, id := range params.CommentIDs {
		item := bulkItem{CommentID: id}
		if err := s.deleteComment(ctx, call, params.PageID, id); err != nil {
			item.Error = SanitizeError(err, "delete")
		} else {
			item.Success = true
		}
		items = append(items, item)
	}
	return bulkReport(items), nil
}
