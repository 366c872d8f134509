package server

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"

	"github.com/pthm-cable/thermoscape/config"
	"github.com/pthm-cable/thermoscape/game"
	"github.com/pthm-cable/thermoscape/store"
	"github.com/pthm-cable/thermoscape/systems"
)

func init() {
	config.MustInit("")
}

func newHandler(t *testing.T, generate bool) (*Handler, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	g, err := game.New(config.Cfg(), game.Options{Store: repo, StatsWindow: 2})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	if generate {
		if err := g.Generate(game.Params{Width: 20, Height: 16, Seed: 5}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	return NewHandler(g, repo), repo
}

func decodeBody(t *testing.T, ctx *app.RequestContext, out any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), out); err != nil {
		t.Fatalf("unmarshal response %q: %v", ctx.Response.Body(), err)
	}
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body map[string]map[string]any
	decodeBody(t, ctx, &body)
	code, _ := body["error"]["code"].(string)
	return code
}

// firstMonitor returns a cell that carries a monitor.
func firstMonitor(t *testing.T, h *Handler) (int, int) {
	t.Helper()
	net := h.game.Network()
	if net.Len() == 0 {
		t.Skip("world has no monitors")
	}
	p := net.Nodes[0].Location
	return p.X, p.Y
}

func TestWorldBeforeGenerate(t *testing.T) {
	h, _ := newHandler(t, false)
	ctx := &app.RequestContext{}
	h.world(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status mismatch: got=%d", got)
	}
	var resp worldResponse
	decodeBody(t, ctx, &resp)
	if resp.Generated {
		t.Error("expected generated=false")
	}
}

func TestGenerateEndpoint(t *testing.T) {
	h, repo := newHandler(t, false)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"width":12,"height":9,"seed":77}`))
	h.generate(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", got, ctx.Response.Body())
	}
	var resp worldResponse
	decodeBody(t, ctx, &resp)
	if !resp.Generated || resp.Params.Width != 12 || resp.Params.Seed != 77 {
		t.Errorf("unexpected world %+v", resp)
	}
	if resp.Tiles.Total() != 12*9 {
		t.Errorf("expected %d tiles, got %d", 12*9, resp.Tiles.Total())
	}

	runs, _ := repo.ListRuns(context.Background(), 0)
	if len(runs) != 1 || runs[0].ID != resp.RunID {
		t.Errorf("expected recorded run %d, got %+v", resp.RunID, runs)
	}
}

func TestGenerateRejectsInvalidParams(t *testing.T) {
	h, _ := newHandler(t, false)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"width":1,"height":9}`))
	h.generate(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got := errorCode(t, ctx); got != "invalid_params" {
		t.Errorf("error code mismatch: got=%q", got)
	}
}

func TestTileEndpoint(t *testing.T) {
	h, _ := newHandler(t, true)
	x, y := firstMonitor(t, h)

	ctx := &app.RequestContext{}
	ctx.Params = param.Params{{Key: "x", Value: strconv.Itoa(x)}, {Key: "y", Value: strconv.Itoa(y)}}
	h.tile(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", got, ctx.Response.Body())
	}
	var resp tileResponse
	decodeBody(t, ctx, &resp)
	if resp.X != x || resp.Y != y || resp.Type == "rock" {
		t.Errorf("unexpected tile %+v", resp)
	}
	if resp.Temperature == nil || resp.Color == "" {
		t.Error("expected a temperature and color on a monitor cell")
	}
}

func TestTileEndpointErrors(t *testing.T) {
	h, _ := newHandler(t, true)

	tests := []struct {
		name   string
		x, y   string
		status int
		code   string
	}{
		{"not integer", "a", "0", consts.StatusBadRequest, "bad_request"},
		{"out of range", "20", "0", consts.StatusNotFound, "tile_not_found"},
		{"negative", "0", "-1", consts.StatusNotFound, "tile_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &app.RequestContext{}
			ctx.Params = param.Params{{Key: "x", Value: tt.x}, {Key: "y", Value: tt.y}}
			h.tile(context.Background(), ctx)

			if got := ctx.Response.StatusCode(); got != tt.status {
				t.Fatalf("status mismatch: got=%d want=%d", got, tt.status)
			}
			if got := errorCode(t, ctx); got != tt.code {
				t.Errorf("error code mismatch: got=%q want=%q", got, tt.code)
			}
		})
	}
}

func TestZonesEndpoint(t *testing.T) {
	h, _ := newHandler(t, true)

	for _, mode := range []string{"zoning", "landmass"} {
		ctx := &app.RequestContext{}
		ctx.Request.SetRequestURI("/api/zones?mode=" + mode + "&points=true")
		h.zones(context.Background(), ctx)

		if got := ctx.Response.StatusCode(); got != consts.StatusOK {
			t.Fatalf("%s: status mismatch: got=%d body=%s", mode, got, ctx.Response.Body())
		}
		var resp zonesResponse
		decodeBody(t, ctx, &resp)
		if resp.Mode != mode || resp.Count != len(resp.Zones) {
			t.Errorf("%s: unexpected response %+v", mode, resp)
		}
		total := 0
		for _, z := range resp.Zones {
			if len(z.Points) != z.Size {
				t.Errorf("%s: zone %d has %d points, size %d", mode, z.ID, len(z.Points), z.Size)
			}
			total += z.Size
		}
		if total != resp.Covered {
			t.Errorf("%s: zones cover %d cells, reported %d", mode, total, resp.Covered)
		}
	}

	ctx := &app.RequestContext{}
	ctx.Request.SetRequestURI("/api/zones?mode=mountains")
	h.zones(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Errorf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestTemperatureLayerEndpoint(t *testing.T) {
	h, _ := newHandler(t, true)
	x, y := firstMonitor(t, h)
	zone, _ := h.game.ZoneSet(systems.ZoneModeZoning).ZoneAt(h.game.Network().Nodes[0].Location)

	ctx := &app.RequestContext{}
	ctx.Params = param.Params{{Key: "name", Value: "temperature"}}
	ctx.Request.SetRequestURI("/api/layers/temperature?zone=" + strconv.Itoa(zone) + "&colors=true")
	h.layer(context.Background(), ctx)

	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("status mismatch: got=%d body=%s", got, ctx.Response.Body())
	}
	var resp layerResponse
	decodeBody(t, ctx, &resp)
	if len(resp.Values) != 20*16 || len(resp.Colors) != 20*16 {
		t.Fatalf("expected %d cells, got %d values %d colors", 20*16, len(resp.Values), len(resp.Colors))
	}
	if resp.Values[y*20+x] == nil || resp.Colors[y*20+x] == "" {
		t.Error("monitor cell missing from its zone")
	}
}

func TestLayerEndpointErrors(t *testing.T) {
	h, _ := newHandler(t, true)

	ctx := &app.RequestContext{}
	ctx.Params = param.Params{{Key: "name", Value: "pressure"}}
	h.layer(context.Background(), ctx)
	if got := errorCode(t, ctx); got != "unknown_layer" {
		t.Errorf("error code mismatch: got=%q", got)
	}

	ctx = &app.RequestContext{}
	ctx.Params = param.Params{{Key: "name", Value: "tiles"}}
	ctx.Request.SetRequestURI("/api/layers/tiles?zone=3")
	h.layer(context.Background(), ctx)
	if got := errorCode(t, ctx); got != "zone_not_found" {
		t.Errorf("error code mismatch: got=%q", got)
	}
}

func TestInjectAndTick(t *testing.T) {
	h, repo := newHandler(t, true)
	x, y := firstMonitor(t, h)

	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"x":` + strconv.Itoa(x) + `,"y":` + strconv.Itoa(y) + `,"amount":60}`))
	h.inject(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("inject status mismatch: got=%d body=%s", got, ctx.Response.Body())
	}

	ctx = &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"count":4}`))
	h.tick(context.Background(), ctx)
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("tick status mismatch: got=%d body=%s", got, ctx.Response.Body())
	}
	var resp struct {
		Tick      int32   `json:"tick"`
		TotalHeat float64 `json:"total_heat"`
	}
	decodeBody(t, ctx, &resp)
	if resp.Tick != 4 {
		t.Errorf("expected tick 4, got %d", resp.Tick)
	}
	if resp.TotalHeat < 59.999 || resp.TotalHeat > 60.001 {
		t.Errorf("expected total heat 60, got %v", resp.TotalHeat)
	}

	ticks, err := repo.ListTicks(context.Background(), h.game.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 2 {
		t.Errorf("expected 2 recorded windows, got %d", len(ticks))
	}
}

func TestTickRejectsBadCount(t *testing.T) {
	h, _ := newHandler(t, true)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"count":0}`))
	h.tick(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestTickBeforeGenerate(t *testing.T) {
	h, _ := newHandler(t, false)
	ctx := &app.RequestContext{}
	h.tick(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusConflict; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got := errorCode(t, ctx); got != "not_generated" {
		t.Errorf("error code mismatch: got=%q", got)
	}
}

func TestRunTicksNotFound(t *testing.T) {
	h, _ := newHandler(t, true)
	ctx := &app.RequestContext{}
	ctx.Params = param.Params{{Key: "id", Value: "999"}}
	h.runTicks(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestPaletteEndpoint(t *testing.T) {
	h, _ := newHandler(t, false)
	ctx := &app.RequestContext{}
	h.palette(context.Background(), ctx)

	var resp struct {
		Colors []string `json:"colors"`
	}
	decodeBody(t, ctx, &resp)
	if len(resp.Colors) != systems.PaletteSize {
		t.Fatalf("expected %d colors, got %d", systems.PaletteSize, len(resp.Colors))
	}
	if resp.Colors[0] != "#0000ff" || resp.Colors[100] != "#ff0000" {
		t.Errorf("unexpected palette ends %s, %s", resp.Colors[0], resp.Colors[100])
	}
}
