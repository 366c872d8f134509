// Package server exposes a generated world over HTTP. Every handler takes the
// handler mutex, so the game sees one caller at a time.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/pthm-cable/thermoscape/components"
	"github.com/pthm-cable/thermoscape/game"
	"github.com/pthm-cable/thermoscape/layers"
	"github.com/pthm-cable/thermoscape/store"
	"github.com/pthm-cable/thermoscape/systems"
)

// maxTicksPerRequest bounds POST /api/tick.
const maxTicksPerRequest = 10000

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnknownLayer = errors.New("unknown layer")
	ErrZoneNotFound = errors.New("zone not found")
	ErrTileNotFound = errors.New("tile out of range")
	ErrNoRunHistory = errors.New("run history disabled")
)

// Handler serves one game.
type Handler struct {
	mu   sync.Mutex
	game *game.Game
	runs store.Repository
}

// NewHandler creates a handler for g. runs may be nil.
func NewHandler(g *game.Game, runs store.Repository) *Handler {
	return &Handler{game: g, runs: runs}
}

// RegisterRoutes mounts the API on s.
func (h *Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware())

	api := s.Group("/api")
	api.GET("/world", h.world)
	api.GET("/tiles/:x/:y", h.tile)
	api.GET("/zones", h.zones)
	api.GET("/layers", h.layerIndex)
	api.GET("/layers/:name", h.layer)
	api.GET("/palette", h.palette)
	api.GET("/events", h.events)
	api.GET("/perf", h.perf)
	api.GET("/runs", h.listRuns)
	api.GET("/runs/:id/ticks", h.runTicks)

	api.POST("/generate", h.generate)
	api.POST("/inject", h.inject)
	api.POST("/tick", h.tick)
}

// RunTicker calls MaybeTick every period until ctx is done.
func (h *Handler) RunTicker(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			h.mu.Lock()
			h.game.MaybeTick(now)
			h.mu.Unlock()
		}
	}
}

type pointDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type worldResponse struct {
	Generated bool                         `json:"generated"`
	Params    game.Params                  `json:"params"`
	Tick      int32                        `json:"tick"`
	Tiles     systems.TileCounts           `json:"tiles"`
	Zones     int                          `json:"zones"`
	Landmass  int                          `json:"landmasses"`
	Monitors  int                          `json:"monitors"`
	Awake     int                          `json:"awake"`
	TotalHeat float64                      `json:"total_heat"`
	RunID     uint64                       `json:"run_id,omitempty"`
	Layers    []components.FieldDescriptor `json:"layers"`
}

func (h *Handler) world(_ context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx.JSON(consts.StatusOK, h.worldState())
}

// worldState summarizes the game. The caller holds h.mu.
func (h *Handler) worldState() worldResponse {
	g := h.game
	resp := worldResponse{Generated: g.Generated()}
	if !g.Generated() {
		return resp
	}
	resp.Params = g.Params()
	resp.Tick = g.Tick()
	resp.Tiles = g.Terrain().Counts()
	resp.Zones = g.ZoneSet(systems.ZoneModeZoning).Count()
	resp.Landmass = g.ZoneSet(systems.ZoneModeLandmass).Count()
	resp.Monitors = g.Network().Len()
	resp.Awake = g.Network().AwakeCount()
	resp.TotalHeat = g.Engine().TotalHeat()
	resp.RunID = g.RunID()
	resp.Layers = components.LayerFieldDescriptors()
	return resp
}

type tileResponse struct {
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Type        string   `json:"type"`
	Covering    bool     `json:"covering"`
	Temperature *float64 `json:"temperature,omitempty"`
	Color       string   `json:"color,omitempty"`
	Zone        int      `json:"zone"`
	Landmass    *int     `json:"landmass,omitempty"`
}

func (h *Handler) tile(_ context.Context, ctx *app.RequestContext) {
	x, errX := strconv.Atoi(ctx.Param("x"))
	y, errY := strconv.Atoi(ctx.Param("y"))
	if errX != nil || errY != nil {
		writeError(ctx, fmt.Errorf("%w: tile coordinates must be integers", ErrBadRequest))
		return
	}
	p := components.Pt(x, y)

	h.mu.Lock()
	defer h.mu.Unlock()

	g := h.game
	if !g.Generated() {
		writeError(ctx, game.ErrNotGenerated)
		return
	}
	typ, ok := g.TileTypeAt(p)
	if !ok {
		writeError(ctx, fmt.Errorf("%w: %v", ErrTileNotFound, p))
		return
	}

	resp := tileResponse{X: x, Y: y, Type: typ.String(), Covering: g.HasCovering(p)}
	if m, ok := g.NodeAt(p); ok {
		temp := m.Temperature
		resp.Temperature = &temp
		resp.Color = hexColor(systems.PaletteColor(temp))
	}
	resp.Zone, _ = g.ZoneSet(systems.ZoneModeZoning).ZoneAt(p)
	if id, ok := g.ZoneSet(systems.ZoneModeLandmass).ZoneAt(p); ok {
		resp.Landmass = &id
	}
	ctx.JSON(consts.StatusOK, resp)
}

type zoneDTO struct {
	ID     int        `json:"id"`
	Size   int        `json:"size"`
	Seed   pointDTO   `json:"seed"`
	Points []pointDTO `json:"points,omitempty"`
}

type zonesResponse struct {
	Mode    string    `json:"mode"`
	Count   int       `json:"count"`
	Covered int       `json:"covered"`
	Zones   []zoneDTO `json:"zones"`
}

func (h *Handler) zones(_ context.Context, ctx *app.RequestContext) {
	mode, err := systems.ParseZoneMode(string(ctx.Query("mode")))
	if err != nil {
		writeError(ctx, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	withPoints := string(ctx.Query("points")) == "true"

	h.mu.Lock()
	defer h.mu.Unlock()

	zs := h.game.ZoneSet(mode)
	if zs == nil {
		writeError(ctx, game.ErrNotGenerated)
		return
	}

	resp := zonesResponse{Mode: mode.String(), Count: zs.Count(), Covered: zs.Covered(), Zones: make([]zoneDTO, 0, zs.Count())}
	for _, z := range zs.Zones {
		dto := zoneDTO{ID: z.ID, Size: z.Len()}
		if z.Len() > 0 {
			dto.Seed = pointDTO{X: z.Points[0].X, Y: z.Points[0].Y}
		}
		if withPoints {
			dto.Points = make([]pointDTO, len(z.Points))
			for i, p := range z.Points {
				dto.Points[i] = pointDTO{X: p.X, Y: p.Y}
			}
		}
		resp.Zones = append(resp.Zones, dto)
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h *Handler) layerIndex(_ context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := []string{}
	if s := h.game.Layers(); s != nil {
		names = s.Names()
	}
	ctx.JSON(consts.StatusOK, map[string]any{"layers": names})
}

type layerResponse struct {
	Name   string   `json:"name"`
	Zone   int      `json:"zone"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Zones  []int    `json:"zones"`
	Values []any    `json:"values"`
	Colors []string `json:"colors,omitempty"`
}

func (h *Handler) layer(_ context.Context, ctx *app.RequestContext) {
	name := ctx.Param("name")
	zone := 0
	if raw := string(ctx.Query("zone")); raw != "" {
		z, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, fmt.Errorf("%w: zone must be an integer", ErrBadRequest))
			return
		}
		zone = z
	}
	withColors := string(ctx.Query("colors")) == "true"

	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.game.Layers()
	if s == nil {
		writeError(ctx, game.ErrNotGenerated)
		return
	}

	resp := layerResponse{Name: name, Zone: zone, Width: s.W, Height: s.H}
	var ok bool
	switch name {
	case components.LayerTemperature:
		var layer layers.Layer[components.Monitor]
		if layer, ok = layers.Get[components.Monitor](s, name); ok {
			resp.Zones = layer.Zones()
			resp.Values, resp.Colors, ok = temperatureValues(layer, zone, withColors)
		}
	case components.LayerTiles:
		var layer layers.Layer[components.Tile]
		if layer, ok = layers.Get[components.Tile](s, name); ok {
			resp.Zones = layer.Zones()
			resp.Values, ok = cellValues(layer, zone, func(t *components.Tile) any { return t.Type.String() })
		}
	case components.LayerCoverings:
		var layer layers.Layer[components.Covering]
		if layer, ok = layers.Get[components.Covering](s, name); ok {
			resp.Zones = layer.Zones()
			resp.Values, ok = cellValues(layer, zone, func(c *components.Covering) any { return c.Density })
		}
	default:
		writeError(ctx, fmt.Errorf("%w: %q", ErrUnknownLayer, name))
		return
	}
	if !ok {
		writeError(ctx, fmt.Errorf("%w: layer %q zone %d", ErrZoneNotFound, name, zone))
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

// cellValues flattens one zone of a layer; empty cells become null.
func cellValues[T any](layer layers.Layer[T], zone int, value func(*T) any) ([]any, bool) {
	cells, ok := layer[zone]
	if !ok {
		return nil, false
	}
	out := make([]any, len(cells))
	for i, c := range cells {
		if c != nil {
			out[i] = value(c)
		}
	}
	return out, true
}

func temperatureValues(layer layers.Layer[components.Monitor], zone int, withColors bool) ([]any, []string, bool) {
	values, ok := cellValues(layer, zone, func(m *components.Monitor) any { return m.Temperature })
	if !ok || !withColors {
		return values, nil, ok
	}
	colors := make([]string, len(values))
	for i, c := range layer[zone] {
		if c != nil {
			colors[i] = hexColor(systems.PaletteColor(c.Temperature))
		}
	}
	return values, colors, true
}

func (h *Handler) palette(_ context.Context, ctx *app.RequestContext) {
	colors := make([]string, systems.PaletteSize)
	for i := range colors {
		colors[i] = hexColor(systems.PaletteColor(float64(i)))
	}
	ctx.JSON(consts.StatusOK, map[string]any{"colors": colors})
}

func (h *Handler) events(_ context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()

	type eventDTO struct {
		Type   string    `json:"type"`
		Tick   int32     `json:"tick"`
		Seed   int64     `json:"seed,omitempty"`
		At     *pointDTO `json:"at,omitempty"`
		Amount float64   `json:"amount,omitempty"`
	}
	recent := h.game.Events()
	out := make([]eventDTO, 0, len(recent))
	for _, e := range recent {
		dto := eventDTO{Type: e.Type.String(), Tick: e.Tick, Seed: e.Seed, Amount: e.Amount}
		if e.Amount != 0 {
			dto.At = &pointDTO{X: e.Location.X, Y: e.Location.Y}
		}
		out = append(out, dto)
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": out})
}

func (h *Handler) perf(_ context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()

	toMS := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	phases := func(avg map[string]time.Duration) map[string]float64 {
		out := make(map[string]float64, len(avg))
		for k, v := range avg {
			out[k] = toMS(v)
		}
		return out
	}

	tick := h.game.PerfStats()
	gen := h.game.GenerationPerf()
	ctx.JSON(consts.StatusOK, map[string]any{
		"tick": map[string]any{
			"avg_ms":           toMS(tick.AvgTickDuration),
			"max_ms":           toMS(tick.MaxTickDuration),
			"ticks_per_second": tick.TicksPerSecond,
			"phases_ms":        phases(tick.PhaseAvg),
		},
		"generation": map[string]any{
			"avg_ms":    toMS(gen.AvgTickDuration),
			"phases_ms": phases(gen.PhaseAvg),
		},
	})
}

func (h *Handler) listRuns(c context.Context, ctx *app.RequestContext) {
	if h.runs == nil {
		writeError(ctx, ErrNoRunHistory)
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	runs, err := h.runs.ListRuns(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) runTicks(c context.Context, ctx *app.RequestContext) {
	if h.runs == nil {
		writeError(ctx, ErrNoRunHistory)
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		writeError(ctx, fmt.Errorf("%w: run id must be an integer", ErrBadRequest))
		return
	}
	ticks, err := h.runs.ListTicks(c, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"run_id": id, "ticks": ticks})
}

func (h *Handler) generate(_ context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg := h.game.Config()
	p := game.Params{Width: cfg.World.Width, Height: cfg.World.Height, Seed: cfg.World.Seed}
	if err := decodeJSON(ctx, &p); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := h.game.Generate(p); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, h.worldState())
}

type injectRequest struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Amount float64 `json:"amount"`
}

func (h *Handler) inject(_ context.Context, ctx *app.RequestContext) {
	var body injectRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p := components.Pt(body.X, body.Y)
	if !h.game.Generated() {
		writeError(ctx, game.ErrNotGenerated)
		return
	}
	if _, ok := h.game.TileTypeAt(p); !ok {
		writeError(ctx, fmt.Errorf("%w: %v", ErrTileNotFound, p))
		return
	}
	if err := h.game.Inject(p, body.Amount); err != nil {
		writeError(ctx, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	m, _ := h.game.NodeAt(p)
	ctx.JSON(consts.StatusOK, map[string]any{
		"x":           p.X,
		"y":           p.Y,
		"temperature": m.Temperature,
		"total_heat":  h.game.Engine().TotalHeat(),
	})
}

type tickRequest struct {
	Count int `json:"count"`
}

func (h *Handler) tick(_ context.Context, ctx *app.RequestContext) {
	body := tickRequest{Count: 1}
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if body.Count < 1 || body.Count > maxTicksPerRequest {
		writeError(ctx, fmt.Errorf("%w: count must be in [1,%d]", ErrBadRequest, maxTicksPerRequest))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	tick, err := h.game.Run(body.Count)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"tick":       tick,
		"awake":      h.game.Network().AwakeCount(),
		"total_heat": h.game.Engine().TotalHeat(),
	})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidParams):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_params", err.Error())
	case errors.Is(err, ErrBadRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, game.ErrNotGenerated):
		writeErrorBody(ctx, consts.StatusConflict, "not_generated", err.Error())
	case errors.Is(err, ErrTileNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "tile_not_found", err.Error())
	case errors.Is(err, ErrUnknownLayer):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_layer", err.Error())
	case errors.Is(err, ErrZoneNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "zone_not_found", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrNoRunHistory):
		writeErrorBody(ctx, consts.StatusNotImplemented, "run_history_disabled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
