package engine

import (
	"fmt"
	"sort"
)

// nearMissMargin widens the diagnostic window below the fallback threshold:
// pairs scoring inside it are logged as near misses for human review even
// though they never qualify for merging.
const nearMissMargin = 0.15

// Grouper partitions records into family groups keyed by (vendor, base
// name). The primary pass only ever merges records with identical keys; the
// fallback pass flags likely matches for human review and never merges.
type Grouper struct {
	cfg   Config
	sizes *SizeExtractor
	log   *DecisionLog
}

// NewGrouper builds a grouper over the given config and decision log.
func NewGrouper(cfg Config, sizes *SizeExtractor, log *DecisionLog) *Grouper {
	return &Grouper{cfg: cfg.normalized(), sizes: sizes, log: log}
}

// Group buckets records into families. Records without a usable title are
// excluded and logged, never fatal. The result is sorted by (vendor, base
// name) so bucket membership is stable regardless of input order.
func (g *Grouper) Group(records []ProductRecord) []FamilyGroup {
	buckets := make(map[FamilyKey][]FamilyMember)

	for _, rec := range records {
		title := Normalize(rec.RawTitle)
		if title == "" {
			g.log.Append(DecisionMalformedInput, "grouping", []string{rec.SourceID}, 0,
				"record has no title; excluded from grouping")
			continue
		}

		matches := g.sizes.Matches(rec.RawTitle)
		var token *SizeToken
		if len(matches) > 0 {
			token = &matches[0]
		}
		if len(matches) > 1 {
			g.log.Append(DecisionSizeAmbiguous, "grouping", []string{rec.SourceID}, 0,
				fmt.Sprintf("title matched %d unit patterns; kept %q (%s), ignored %d other candidate(s)",
					len(matches), token.RawMatch, token.Class, len(matches)-1))
		}

		base := g.sizes.StripSize(rec.RawTitle, token)
		if base == "" {
			// Title was nothing but the size token; keep the whole title as
			// the base so the record still lands in a family.
			base = title
		}

		key := FamilyKey{Vendor: Normalize(rec.Vendor), BaseName: base}
		buckets[key] = append(buckets[key], FamilyMember{Record: rec, Base: base, Size: token})
	}

	groups := make([]FamilyGroup, 0, len(buckets))
	for key, members := range buckets {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Record.SourceID < members[j].Record.SourceID
		})
		groups = append(groups, FamilyGroup{Key: key, Members: members})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key.Vendor != groups[j].Key.Vendor {
			return groups[i].Key.Vendor < groups[j].Key.Vendor
		}
		return groups[i].Key.BaseName < groups[j].Key.BaseName
	})

	for _, grp := range groups {
		if len(grp.Members) < 2 {
			continue
		}
		g.log.Append(DecisionFamilyGrouped, "grouping", sourceIDs(grp.Members), 0,
			fmt.Sprintf("%d records share family key (%s, %s)", len(grp.Members), grp.Key.Vendor, grp.Key.BaseName))
	}

	g.flagMissedFamilies(groups)
	return groups
}

// flagMissedFamilies is the diagnostic fallback pass over families the
// primary bucketing left as singletons. Pairs at or above the configured
// threshold are flagged as likely the same family; pairs just under it are
// logged as near misses. A 75%-similar name is not proof of identity, so
// nothing here merges.
func (g *Grouper) flagMissedFamilies(groups []FamilyGroup) {
	byVendor := make(map[string][]FamilyGroup)
	var vendors []string
	for _, grp := range groups {
		if len(grp.Members) != 1 {
			continue
		}
		if _, seen := byVendor[grp.Key.Vendor]; !seen {
			vendors = append(vendors, grp.Key.Vendor)
		}
		byVendor[grp.Key.Vendor] = append(byVendor[grp.Key.Vendor], grp)
	}
	sort.Strings(vendors)

	floor := g.cfg.FallbackThreshold - nearMissMargin
	for _, vendor := range vendors {
		singles := byVendor[vendor]
		for i := 0; i < len(singles); i++ {
			// Collect every counterpart scoring above the near-miss floor,
			// best first, so a multi-way ambiguity logs the winner as the
			// candidate and the runners-up as near misses.
			type scored struct {
				grp   FamilyGroup
				score float64
			}
			var hits []scored
			for j := 0; j < len(singles); j++ {
				if i == j {
					continue
				}
				score := Similarity(singles[i].Key.BaseName, singles[j].Key.BaseName)
				if score >= floor {
					hits = append(hits, scored{grp: singles[j], score: score})
				}
			}
			sort.SliceStable(hits, func(a, b int) bool {
				if hits[a].score != hits[b].score {
					return hits[a].score > hits[b].score
				}
				return hits[a].grp.Key.BaseName < hits[b].grp.Key.BaseName
			})

			src := singles[i].Members[0].Record.SourceID
			for rank, hit := range hits {
				other := hit.grp.Members[0].Record.SourceID
				if src > other {
					// Each unordered pair is reported once, from its
					// lexicographically smaller member.
					continue
				}
				pair := []string{src, other}
				switch {
				case hit.score >= g.cfg.FallbackThreshold && rank == 0:
					g.log.Append(DecisionFallbackCandidate, "fallback-similarity", pair, hit.score,
						fmt.Sprintf("%q and %q likely the same family (score %.2f >= %.2f); review before merging",
							singles[i].Key.BaseName, hit.grp.Key.BaseName, hit.score, g.cfg.FallbackThreshold))
				default:
					g.log.Append(DecisionNearMiss, "fallback-similarity", pair, hit.score,
						fmt.Sprintf("%q vs %q scored %.2f, below candidate rank or threshold %.2f; not merged",
							singles[i].Key.BaseName, hit.grp.Key.BaseName, hit.score, g.cfg.FallbackThreshold))
				}
			}
		}
	}
}

func sourceIDs(members []FamilyMember) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.Record.SourceID)
	}
	return ids
}
