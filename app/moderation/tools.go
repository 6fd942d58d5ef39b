package moderation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"reddish/app/models"
)

const (
	toolCensorPost = "censor_post"
	toolReportUser = "report_user"
)

var moderationTools = []Tool{
	{
		Type: "function",
		Function: FunctionDef{
			Name:        toolCensorPost,
			Description: "Censor inappropriate content in post title and body",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"postId": {"type": "string", "description": "The ID of the post to censor"},
					"title": {"type": "string", "description": "Censored version of the title"},
					"body": {"type": "string", "description": "Censored version of the body"},
					"isToBeReported": {"type": "boolean", "description": "If the post contains prohibited content, return true, otherwise return false"}
				},
				"required": ["postId"]
			}`),
		},
	},
	{
		Type: "function",
		Function: FunctionDef{
			Name:        toolReportUser,
			Description: "Report a user for violating community guidelines",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"userId": {"type": "string", "description": "The ID of the user to report"}
				},
				"required": ["userId"]
			}`),
		},
	},
}

// flexID accepts an id the model sent either as a JSON number or as a string.
type flexID int

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*f = flexID(n)
	return nil
}

type censorPostArgs struct {
	PostID         flexID  `json:"postId"`
	Title          *string `json:"title"`
	Body           *string `json:"body"`
	IsToBeReported bool    `json:"isToBeReported"`
}

type reportUserArgs struct {
	UserID string `json:"userId"`
}

type toolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r toolResult) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// run executes one tool call against the post under review. The model may only
// act on that post and its author.
func (s *session) run(call ToolCall) toolResult {
	switch call.Function.Name {
	case toolCensorPost:
		var args censorPostArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return toolResult{Message: "invalid arguments: " + err.Error()}
		}
		return s.censorPost(args)
	case toolReportUser:
		var args reportUserArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return toolResult{Message: "invalid arguments: " + err.Error()}
		}
		return s.reportUser(args)
	default:
		return toolResult{Message: fmt.Sprintf("unknown tool %q", call.Function.Name)}
	}
}

func (s *session) censorPost(args censorPostArgs) toolResult {
	id := int(args.PostID)
	if id != s.post.ID {
		return toolResult{Message: fmt.Sprintf("Post %d is not under review", id)}
	}
	if !args.IsToBeReported {
		return toolResult{Success: true, Message: fmt.Sprintf("Post %d is not reported", id)}
	}

	post, err := s.agent.posts.GetByID(id)
	if err != nil {
		return toolResult{Message: fmt.Sprintf("loading post %d: %v", id, err)}
	}
	title, body := nonEmpty(args.Title), nonEmpty(args.Body)
	post.Censor(title, body)
	if err := s.agent.posts.Update(post); err != nil {
		return toolResult{Message: fmt.Sprintf("saving post %d: %v", id, err)}
	}

	s.outcome.Censored = true
	return toolResult{Success: true, Message: fmt.Sprintf("Post %d censored successfully", id)}
}

func (s *session) reportUser(args reportUserArgs) toolResult {
	if args.UserID != s.post.AuthorID {
		return toolResult{Message: fmt.Sprintf("User %s is not the author of the post under review", args.UserID)}
	}

	user, err := s.agent.users.GetByID(args.UserID)
	if err != nil {
		return toolResult{Message: fmt.Sprintf("loading user %s: %v", args.UserID, err)}
	}
	user.IsReported = true
	if err := s.agent.users.Update(user); err != nil {
		return toolResult{Message: fmt.Sprintf("saving user %s: %v", args.UserID, err)}
	}

	s.outcome.UserReported = true
	return toolResult{Success: true, Message: fmt.Sprintf("User %s reported successfully", args.UserID)}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// PostStore is what the censor tool needs from storage.
type PostStore interface {
	GetByID(id int) (*models.Post, error)
	Update(post *models.Post) error
}

// UserStore is what the report tool needs from storage.
type UserStore interface {
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
}
