// Package model defines the data structures used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// Category is a help category tag. Volunteers declare the categories they
// can help with, migrants tag each request with exactly one of them.
//
// The set is CLOSED: both sides of a match must draw from the same list,
// otherwise intersections silently come out empty. Use ParseCategory at every
// boundary (registration, profile update, post creation).
type Category string

const (
	CategoryFood      Category = "food"
	CategoryHealth    Category = "health"
	CategoryLegal     Category = "legal"
	CategoryHousing   Category = "housing"
	CategoryWork      Category = "work"
	CategoryEducation Category = "education"
	CategorySocial    Category = "social"
	CategoryClothes   Category = "clothes"
	CategoryFurniture Category = "furniture"
	CategoryTransport Category = "transport"
)

// categories is the authoritative enumeration, in display order.
// Set operations return their results in this order so output is stable.
var categories = []Category{
	CategoryFood,
	CategoryHealth,
	CategoryLegal,
	CategoryHousing,
	CategoryWork,
	CategoryEducation,
	CategorySocial,
	CategoryClothes,
	CategoryFurniture,
	CategoryTransport,
}

// categoryRank maps each known category to its position in the enumeration.
var categoryRank = func() map[Category]int {
	m := make(map[Category]int, len(categories))
	for i, c := range categories {
		m[c] = i
	}
	return m
}()

// Categories returns a copy of the closed category enumeration.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c belongs to the enumeration.
func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

func (c Category) String() string { return string(c) }

// ParseCategory normalises s (trim + lower-case) and checks it against the
// enumeration.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ParseCategories parses every entry of raw, dropping duplicates.
// The first unknown tag aborts parsing.
func ParseCategories(raw []string) ([]Category, error) {
	set := make(CategorySet, len(raw))
	for _, s := range raw {
		c, err := ParseCategory(s)
		if err != nil {
			return nil, err
		}
		set[c] = struct{}{}
	}
	return set.Slice(), nil
}

// CategorySet is an unordered set of categories.
//
// The zero value (nil) is a valid empty set: Has returns false and Len
// returns 0, so callers never need a nil check before querying.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from cs. Tags outside the enumeration are
// dropped: an unknown tag can never take part in a match.
func NewCategorySet(cs ...Category) CategorySet {
	set := make(CategorySet, len(cs))
	for _, c := range cs {
		if c.Valid() {
			set[c] = struct{}{}
		}
	}
	return set
}

// Has reports whether c is a member of the set.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

func (s CategorySet) Len() int { return len(s) }

// Intersect returns the members shared by s and other, in enumeration order.
func (s CategorySet) Intersect(other CategorySet) []Category {
	out := make([]Category, 0)
	for _, c := range categories {
		if s.Has(c) && other.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Slice returns the members in enumeration order.
func (s CategorySet) Slice() []Category {
	out := make([]Category, 0, len(s))
	for _, c := range categories {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// CategoryStrings converts cs to plain strings, e.g. for storage columns.
func CategoryStrings(cs []Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
