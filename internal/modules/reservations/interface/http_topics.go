package transport

import (
	"strings"

	"aviratoDash/internal/modules/reservations/domain"
)

var pipelineStages = []domain.Stage{
	domain.StagePageFetched,
	domain.StagePaginationTruncated,
	domain.StageRecordRejected,
	domain.StageWindowReconciled,
	domain.StageLookup,
	domain.StageBilling,
	domain.StageEnriched,
}

// parseTopics expands the comma separated ?topics= value. The shorthands
// "snapshot", "invalidated" and "pipeline" stand for their full topics.
// An empty result means "everything".
func parseTopics(raw string) []string {
	var topics []string
	seen := map[string]struct{}{}
	add := func(t string) {
		if _, ok := seen[t]; ok || t == "" {
			return
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "":
		case "snapshot", "snapshots":
			add(domain.Topic(domain.EntityReservations, domain.ActionSnapshot))
		case "invalidated":
			add(domain.Topic(domain.EntityReservations, domain.ActionInvalidated))
		case "pipeline", "events":
			for _, stage := range pipelineStages {
				add(domain.Topic(domain.EntityPipeline, string(stage)))
			}
		default:
			add(part)
		}
	}
	return topics
}
