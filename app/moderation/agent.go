// Package moderation reviews newly created posts with a tool-calling language
// model. The model can rewrite the post's title and body or flag its author.
package moderation

import (
	"context"
	"fmt"
	"time"

	"reddish/app/logger"
	"reddish/app/metrics"
	"reddish/app/models"

	"go.uber.org/zap"
)

const defaultMaxSteps = 5

// Outcome summarizes what one moderation run changed.
type Outcome struct {
	Censored     bool
	UserReported bool
	Steps        int
}

// Agent drives the review conversation for a single post at a time.
type Agent struct {
	client   Completer
	model    string
	posts    PostStore
	users    UserStore
	maxSteps int
}

func NewAgent(client Completer, model string, posts PostStore, users UserStore, maxSteps int) *Agent {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	return &Agent{client: client, model: model, posts: posts, users: users, maxSteps: maxSteps}
}

// session is the state of one run.
type session struct {
	agent   *Agent
	post    *models.Post
	outcome Outcome
}

// Moderate reviews post and applies whatever tools the model calls. The post
// passed in is not modified; changes go through the stores.
func (a *Agent) Moderate(ctx context.Context, post *models.Post) error {
	start := time.Now()
	outcome, err := a.review(ctx, post)
	metrics.Get().ModerationDuration.Observe(time.Since(start).Seconds())

	log := logger.Log.With(logger.WithPostID(post.ID), logger.WithUserID(post.AuthorID))
	if err != nil {
		metrics.Get().ModerationRuns.WithLabelValues("error").Inc()
		log.Warn("moderation failed", zap.Error(err))
		return err
	}

	label := "clean"
	if outcome.Censored || outcome.UserReported {
		label = "flagged"
	}
	metrics.Get().ModerationRuns.WithLabelValues(label).Inc()
	log.Info("moderation finished",
		zap.Bool("censored", outcome.Censored),
		zap.Bool("user_reported", outcome.UserReported),
		zap.Int("steps", outcome.Steps),
	)
	return nil
}

func (a *Agent) review(ctx context.Context, post *models.Post) (Outcome, error) {
	s := &session{agent: a, post: post}
	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt(post.AuthorID)},
		{Role: "user", Content: userPrompt(post)},
	}

	for s.outcome.Steps < a.maxSteps {
		s.outcome.Steps++

		reply, err := a.client.Complete(ctx, ChatRequestBody{
			Model:      a.model,
			Messages:   messages,
			Tools:      moderationTools,
			ToolChoice: "auto",
		})
		if err != nil {
			return s.outcome, err
		}
		if len(reply.ToolCalls) == 0 {
			return s.outcome, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			metrics.Get().ModerationToolCalls.WithLabelValues(call.Function.Name).Inc()
			result := s.run(call)
			if !result.Success {
				logger.Log.Debug("moderation tool refused",
					zap.String("tool", call.Function.Name),
					zap.String("message", result.Message),
				)
			}
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result.String(),
			})
		}
	}

	logger.Log.Debug("moderation stopped at step limit", logger.WithPostID(post.ID), zap.Int("steps", a.maxSteps))
	return s.outcome, nil
}

func systemPrompt(authorID string) string {
	return fmt.Sprintf(`You are a content moderator for a community forum. Review the post you are given.
If the title or body contains hate speech, harassment, explicit sexual content, threats or personal data,
call censor_post with isToBeReported set to true and a cleaned up title and body with the offending words masked.
If the post is acceptable, call censor_post with isToBeReported set to false or do nothing.
If the content is severe, also call report_user for the author, whose user ID is %s.
Do not change anything that is not inappropriate.`, authorID)
}

func userPrompt(post *models.Post) string {
	return fmt.Sprintf("I posted this post -> Post ID: %d\nTitle: %s\nBody: %s", post.ID, post.Title, post.Body)
}
