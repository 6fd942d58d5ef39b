package models

import (
	"sort"
	"strings"
)

// PostListing is a post joined with everything a feed or detail page shows.
type PostListing struct {
	*Post
	Author       *User       `json:"author,omitempty"`
	Subreddit    *Subreddit  `json:"subreddit,omitempty"`
	Votes        VoteSummary `json:"votes"`
	CommentCount int         `json:"commentCount"`
	UserVote     VoteType    `json:"userVote,omitempty"`
}

// CommentThread is a comment with its author, votes and nested replies.
type CommentThread struct {
	*Comment
	Author     *User            `json:"author,omitempty"`
	Votes      VoteSummary      `json:"votes"`
	UserVote   VoteType         `json:"userVote,omitempty"`
	ReplyCount int              `json:"replyCount"`
	Replies    []*CommentThread `json:"replies,omitempty"`
}

// SortOrder names a feed ordering.
type SortOrder string

const (
	SortNew     SortOrder = "new"
	SortHot     SortOrder = "hot"
	SortPopular SortOrder = "popular"
	SortTop     SortOrder = "top"
	SortRising  SortOrder = "rising"
)

// ParseSortOrder falls back to SortNew for anything it does not recognize.
func ParseSortOrder(s string) SortOrder {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortHot, SortPopular, SortTop, SortRising:
		return o
	default:
		return SortNew
	}
}

// SortListings orders items in place.
func SortListings(items []*PostListing, order SortOrder) {
	newer := func(i, j int) bool {
		if items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].PublishedAt.After(items[j].PublishedAt)
	}

	switch order {
	case SortHot, SortPopular:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Votes.Upvotes != items[j].Votes.Upvotes {
				return items[i].Votes.Upvotes > items[j].Votes.Upvotes
			}
			return newer(i, j)
		})
	case SortTop:
		sort.SliceStable(items, newer)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Votes.Upvotes > items[j].Votes.Upvotes
		})
	case SortRising:
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Votes.Upvotes != items[j].Votes.Upvotes {
				return items[i].Votes.Upvotes < items[j].Votes.Upvotes
			}
			return newer(i, j)
		})
	default:
		sort.SliceStable(items, newer)
	}
}

// SortByNetScore orders posts by net score, highest first.
func SortByNetScore(items []*PostListing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Votes.NetScore > items[j].Votes.NetScore
	})
}

// SortByTotalVotes orders posts by vote count regardless of direction.
func SortByTotalVotes(items []*PostListing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Votes.Total > items[j].Votes.Total
	})
}

// Paginate returns the 1-based page of items.
func Paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return items
	}
	// compare before multiplying so a huge page cannot overflow
	if len(items) == 0 || page-1 > (len(items)-1)/perPage {
		return []T{}
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// NestThreads arranges a flat list of threads into reply trees, oldest first at every level.
// Replies whose parent is missing are promoted to the top level.
func NestThreads(flat []*CommentThread) []*CommentThread {
	sort.SliceStable(flat, func(i, j int) bool {
		if flat[i].CreatedAt.Equal(flat[j].CreatedAt) {
			return flat[i].ID < flat[j].ID
		}
		return flat[i].CreatedAt.Before(flat[j].CreatedAt)
	})

	byID := make(map[int]*CommentThread, len(flat))
	for _, t := range flat {
		t.Replies = nil
		t.ReplyCount = 0
		byID[t.ID] = t
	}

	roots := make([]*CommentThread, 0, len(flat))
	for _, t := range flat {
		parent, ok := byID[t.ParentCommentID]
		if t.ParentCommentID == 0 || !ok || parent == t {
			roots = append(roots, t)
			continue
		}
		parent.Replies = append(parent.Replies, t)
		parent.ReplyCount++
	}
	return roots
}
