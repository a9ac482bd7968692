package repository

import "context"

// MemberRepository persists the full member list. Save always replaces the
// stored list; a reader never observes a partial write.
type MemberRepository interface {
	// Load returns the stored names, or an empty slice when nothing was saved yet.
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, names []string) error
}
