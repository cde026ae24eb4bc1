package join

import (
	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

const entityDestinations = "destinations"

// ChannelDestinations 把渠道与目的地展开为每个（渠道 × 识别的属性）一行。
// 目的地找不到或没有 email/url 属性时，渠道仍输出一行，属性字段为空。
func ChannelDestinations(channels []domain.Channel, destinations []domain.Destination, diag *report.Diagnostics) []domain.FlatChannelRow {
	lookup := make(map[string]domain.Destination, len(destinations))
	for _, d := range destinations {
		if _, dup := lookup[d.ID]; dup {
			diag.Ambiguous(entityDestinations, d.ID, "duplicate destination id, later entity wins")
		}
		lookup[d.ID] = d
	}

	rows := make([]domain.FlatChannelRow, 0, len(channels))
	for _, ch := range channels {
		base := domain.FlatChannelRow{
			ChannelID:     ch.ID,
			ChannelName:   ch.Name,
			ChannelType:   ch.Type,
			DestinationID: ch.DestinationID,
		}
		dest, ok := lookup[ch.DestinationID]
		if !ok || ch.DestinationID == "" {
			rows = append(rows, base)
			continue
		}

		emitted := false
		for _, key := range domain.RecognizedDestinationKeys {
			value, ok := dest.Properties[key]
			if !ok {
				continue
			}
			row := base
			row.DestinationKey = key
			row.DestinationValue = value
			rows = append(rows, row)
			emitted = true
		}
		if !emitted {
			rows = append(rows, base)
		}
	}
	return rows
}
