package model

import "strings"

// MemberList is an ordered set of member names. The zero value is empty and
// ready to use. It is not safe for concurrent use.
type MemberList struct {
	names []string
}

// NewMemberList builds a list from stored names, dropping blanks and
// duplicates while keeping first-seen order.
func NewMemberList(names []string) *MemberList {
	l := &MemberList{names: make([]string, 0, len(names))}
	for _, n := range names {
		l.Add(n)
	}
	return l
}

// Add appends name unless it is empty or already present.
func (l *MemberList) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || l.Contains(name) {
		return false
	}
	l.names = append(l.names, name)
	return true
}

// Remove deletes name if present.
func (l *MemberList) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for i, n := range l.names {
		if n == name {
			l.names = append(l.names[:i], l.names[i+1:]...)
			return true
		}
	}
	return false
}

func (l *MemberList) Contains(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns a copy, never nil.
func (l *MemberList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l *MemberList) Len() int { return len(l.names) }
