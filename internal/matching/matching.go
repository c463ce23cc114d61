// Package matching decides what a volunteer may see and whom they may contact.
//
// One predicate drives both decisions: a volunteer can help with a need post
// when the post's category is among the volunteer's declared help categories.
// Post visibility and chat eligibility both go through canHelp, so a
// volunteer who cannot see a migrant's request is also denied chat with them
// on that basis.
//
// A volunteer with help categories {food, health} sees:
//
//	need  / food       visible, can_help=true
//	need  / legal      hidden
//	offer / education  visible, can_help=false (offers are never hidden)
//
// and gets can_chat=true with a migrant only if one of that migrant's need
// posts is in food or health.
//
// Everything here is read-only. The pure functions (FilterPosts, Decide) take
// plain values. Engine wraps them with store lookups for the request layer.
package matching

import (
	"strings"

	"github.com/watizat/connect/internal/model"
)

// ReasonNoMatchingCategories is the deny reason returned by Decide.
const ReasonNoMatchingCategories = "no_matching_categories"

// Decision is the outcome of a can-chat query.
//
// On allow, Reason lists the shared categories joined by ",", in
// enumeration order, so a single match reads as the category name ("food").
type Decision struct {
	CanChat            bool             `json:"can_chat"`
	Reason             string           `json:"reason"`
	MatchingCategories []model.Category `json:"matching_categories"`
}

// Step summarises one filtering pass.
type Step struct {
	Initial int
	Hidden  int
	Visible int
}

// canHelp reports whether a volunteer with help set can assist with p.
// Unknown categories are never members of a CategorySet, so they fail closed.
func canHelp(help model.CategorySet, p *model.Post) bool {
	return p.Type == model.PostNeed && help.Has(p.Category)
}

// FilterPosts returns the posts viewer may see, annotated with can_help.
//
// Non-volunteers (migrants, admins, anonymous callers) see every post with
// can_help=false. A volunteer sees every offer and only the need posts whose
// category is in their help set. Input order is preserved and the result is
// never nil.
func FilterPosts(viewer *model.User, posts []model.Post) []model.VisiblePost {
	out, _ := filterPosts(viewer, posts)
	return out
}

func filterPosts(viewer *model.User, posts []model.Post) ([]model.VisiblePost, Step) {
	out := make([]model.VisiblePost, 0, len(posts))
	help, isVolunteer := viewer.HelpSet()

	for i := range posts {
		p := &posts[i]
		if !isVolunteer {
			out = append(out, model.VisiblePost{Post: *p})
			continue
		}

		helps := canHelp(help, p)
		if p.Type == model.PostNeed && !helps {
			continue
		}
		out = append(out, model.VisiblePost{Post: *p, CanHelp: helps})
	}

	return out, Step{Initial: len(posts), Hidden: len(posts) - len(out), Visible: len(out)}
}

// Visible reports whether viewer may see p. It agrees with FilterPosts.
func Visible(viewer *model.User, p *model.Post) bool {
	help, isVolunteer := viewer.HelpSet()
	if !isVolunteer || p.Type != model.PostNeed {
		return true
	}
	return canHelp(help, p)
}

// Decide computes the can-chat decision between volunteer and a target user,
// given every post authored by the target. Offer posts are ignored.
//
// A caller who is not a volunteer has no help set and is always denied.
func Decide(volunteer *model.User, targetPosts []model.Post) Decision {
	help, _ := volunteer.HelpSet()

	needs := make(model.CategorySet)
	for i := range targetPosts {
		if canHelp(help, &targetPosts[i]) {
			needs[targetPosts[i].Category] = struct{}{}
		}
	}

	shared := needs.Intersect(help)
	if len(shared) == 0 {
		return Decision{
			CanChat:            false,
			Reason:             ReasonNoMatchingCategories,
			MatchingCategories: []model.Category{},
		}
	}

	return Decision{
		CanChat:            true,
		Reason:             strings.Join(model.CategoryStrings(shared), ","),
		MatchingCategories: shared,
	}
}
