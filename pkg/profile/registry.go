package profile

import "strings"

// MatchKind selects how a Rule pattern is compared to an identifier.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchPrefix
	MatchContains
)

// Rule maps identifiers matching Pattern to a Profile.
type Rule struct {
	Kind    MatchKind
	Pattern string
	Profile Profile
}

// Matches reports whether the identifier satisfies the rule. Comparison is
// case-insensitive.
func (r Rule) Matches(appID string) bool {
	id := strings.ToLower(strings.TrimSpace(appID))
	pattern := strings.ToLower(r.Pattern)
	if id == "" || pattern == "" {
		return false
	}
	switch r.Kind {
	case MatchExact:
		return id == pattern
	case MatchPrefix:
		return strings.HasPrefix(id, pattern)
	case MatchContains:
		return strings.Contains(id, pattern)
	}
	return false
}

var (
	targetGameProfile = Profile{
		Name:          "pubg-mobile",
		Engine:        EngineTargetGame,
		SampleRateHz:  120,
		Priority:      10,
		PreferredHook: HookCompositorDebug,
	}
	unityProfile = Profile{
		Name:          "unity",
		Engine:        EngineUnity,
		SampleRateHz:  60,
		Priority:      1,
		PreferredHook: HookMetal,
	}
	unrealProfile = Profile{
		Name:          "unreal",
		Engine:        EngineUnreal,
		SampleRateHz:  60,
		Priority:      1,
		PreferredHook: HookMetal,
	}
)

// BuiltinRules returns the static identifier table.
func BuiltinRules() []Rule {
	return []Rule{
		{Kind: MatchExact, Pattern: "com.tencent.ig", Profile: targetGameProfile},
		{Kind: MatchExact, Pattern: "com.pubg.krmobile", Profile: targetGameProfile},
		{Kind: MatchExact, Pattern: "com.pubg.imobile", Profile: targetGameProfile},
		{Kind: MatchExact, Pattern: "com.vng.pubgmobile", Profile: targetGameProfile},
		{Kind: MatchExact, Pattern: "com.rekoo.pubgm", Profile: targetGameProfile},
		{Kind: MatchExact, Pattern: "com.tencent.tmgp.pubgmhd", Profile: targetGameProfile},
		{Kind: MatchPrefix, Pattern: "com.epicgames.", Profile: unrealProfile},
		{Kind: MatchContains, Pattern: ".unreal", Profile: unrealProfile},
		{Kind: MatchPrefix, Pattern: "com.unity3d.", Profile: unityProfile},
		{Kind: MatchContains, Pattern: ".unity", Profile: unityProfile},
	}
}

// Registry holds the classification rules. It is read-only once constructed
// and safe for concurrent use.
type Registry struct {
	rules    []Rule
	fallback Profile
}

// NewRegistry creates a registry with the built-in table. Custom rules are
// consulted first, in the order given.
func NewRegistry(custom ...Rule) *Registry {
	rules := make([]Rule, 0, len(custom)+len(BuiltinRules()))
	rules = append(rules, custom...)
	rules = append(rules, BuiltinRules()...)
	return &Registry{
		rules:    rules,
		fallback: Unknown(),
	}
}

// Rules returns a copy of the rule table in lookup order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Classify returns the profile for an application identifier. Exact matches
// win over pattern matches; anything unmatched gets the Unknown profile.
func (r *Registry) Classify(appID string) Profile {
	for _, rule := range r.rules {
		if rule.Kind == MatchExact && rule.Matches(appID) {
			return rule.Profile
		}
	}
	for _, rule := range r.rules {
		if rule.Kind != MatchExact && rule.Matches(appID) {
			return rule.Profile
		}
	}
	return r.fallback
}
