package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/output"
	"github.com/earth-module/tem-dashboard/internal/resolver"
	"github.com/earth-module/tem-dashboard/internal/state"
)

// View is everything a renderer needs for one frame.
type View struct {
	Revision      uint64           `json:"revision"`
	Connection    state.Connection `json:"connection"`
	FailureStreak int              `json:"failure_streak"`
	LastUpdate    *time.Time       `json:"last_update,omitempty"`
	Cards         []Card           `json:"cards"`
	Tiles         []Tile           `json:"tiles"`
	Device        DeviceInfo       `json:"device"`
	Location      state.Location   `json:"location"`
	Keys          state.KeyStatus  `json:"keys"`
	Update        model.UpdateInfo `json:"update"`
}

// Card is one output channel.
type Card struct {
	Kind       catalog.Kind   `json:"kind"`
	Index      int            `json:"index"`
	Channel    string         `json:"channel"`
	Title      string         `json:"title"`
	ParamID    int            `json:"param_id"`
	ParamLabel string         `json:"param_label"`
	Actual     string         `json:"actual"`
	Output     output.Display `json:"output"`
	Reported   bool           `json:"reported"`
	Pending    bool           `json:"pending"`
	Options    []OptionGroup  `json:"options"`
}

type OptionGroup struct {
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

type Option struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Detail   string `json:"detail"`
	IsNew    bool   `json:"is_new"`
	Selected bool   `json:"selected"`
}

// Build renders snap against cat.
func Build(snap state.Snapshot, cat *catalog.Catalog) View {
	v := View{
		Revision:      snap.Revision,
		Connection:    snap.Connection,
		FailureStreak: snap.FailureStreak,
		Tiles:         Tiles(snap.Env),
		Device:        FormatDevice(snap.Device),
		Location:      snap.Location,
		Keys:          snap.Keys,
		Update:        snap.Update,
	}
	if !snap.LastUpdate.IsZero() {
		t := snap.LastUpdate
		v.LastUpdate = &t
	}
	for _, ch := range snap.Outputs {
		v.Cards = append(v.Cards, buildCard(ch, snap.Env, cat))
	}
	return v
}

func buildCard(ch state.Channel, env model.Environment, cat *catalog.Catalog) Card {
	card := Card{
		Kind:       ch.Kind,
		Index:      ch.Index,
		Channel:    ch.Name,
		Title:      fmt.Sprintf("%s %d", strings.ToUpper(string(ch.Kind)), ch.Index+1),
		ParamID:    ch.ParamID,
		ParamLabel: resolver.Label(cat, ch.Kind, ch.ParamID),
		Output:     output.Render(ch.Kind, output.Level(ch.Level)),
		Reported:   ch.Level != nil,
		Pending:    ch.Pending,
		Options:    Options(cat, ch.Kind, ch.ParamID),
	}
	reading, err := resolver.Resolve(cat, ch.Kind, ch.ParamID, env)
	card.Actual = resolver.Display(reading, err)
	return card
}

// Options lists the selectable parameters for kind. CV options are grouped
// by category with their range; gate options form one group with their
// switching logic.
func Options(cat *catalog.Catalog, kind catalog.Kind, selected int) []OptionGroup {
	if kind == catalog.KindGate {
		group := OptionGroup{Label: "Gate Logic"}
		for _, def := range cat.List(kind) {
			group.Options = append(group.Options, option(def, def.Logic, selected))
		}
		if len(group.Options) == 0 {
			return nil
		}
		return []OptionGroup{group}
	}

	var groups []OptionGroup
	for _, g := range cat.ListByCategory(kind) {
		group := OptionGroup{Label: g.Label}
		for _, def := range g.Items {
			group.Options = append(group.Options, option(def, RangeLabel(def), selected))
		}
		groups = append(groups, group)
	}
	return groups
}

func option(def catalog.Definition, detail string, selected int) Option {
	return Option{ID: def.ID, Label: def.Name, Detail: detail, IsNew: def.IsNew, Selected: def.ID == selected}
}

// RangeLabel renders a definition's range, e.g. "-10,40°C".
func RangeLabel(def catalog.Definition) string {
	lo := strconv.FormatFloat(def.Range[0], 'f', -1, 64)
	hi := strconv.FormatFloat(def.Range[1], 'f', -1, 64)
	return lo + "," + hi + def.Unit
}
