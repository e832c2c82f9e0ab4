// Package api provides the REST API server for arp32
package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/arp32/pkg/arp"
	"github.com/james-see/arp32/pkg/patch"
	"github.com/james-see/arp32/pkg/render"
)

// @title Arp32 API
// @version 1.0
// @description API for generating arpeggio note tables and MIDI renders
// @host localhost:8080
// @BasePath /api/v1

// Bounds on offline renders requested over HTTP
const (
	maxRenderSteps  = 4096
	maxRenderFrames = 1_000_000 // About 17 minutes at the default control rate
)

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return NewRouter().Run(fmt.Sprintf(":%d", port))
}

// Endpoints lists the API routes as "METHOD path", swagger docs excluded
func Endpoints() []string {
	var out []string
	for _, r := range NewRouter().Routes() {
		if strings.HasPrefix(r.Path, "/swagger/") {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", r.Method, r.Path))
	}
	sort.Strings(out)
	return out
}

// NewRouter builds the API routes
func NewRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/patterns", listPatterns)
		v1.GET("/scales", listScales)
		v1.GET("/gatemodes", listGateModes)
		v1.POST("/table", handleTable)
		v1.POST("/render", handleRender)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "arp32",
	})
}

// Choice describes one selectable enum value
type Choice struct {
	ID    int    `json:"id"`
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Fixed bool   `json:"fixed,omitempty"`
}

// listPatterns godoc
// @Summary List pattern shapes
// @Description Returns the selectable pattern shapes in knob order
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]Choice
// @Router /api/v1/patterns [get]
func listPatterns(c *gin.Context) {
	var out []Choice
	for _, s := range arp.Shapes() {
		slug, _ := s.MarshalText()
		out = append(out, Choice{ID: int(s), Slug: string(slug), Name: s.String(), Fixed: s.Fixed()})
	}
	c.JSON(http.StatusOK, gin.H{"patterns": out})
}

// listScales godoc
// @Summary List scale modes
// @Description Returns the step size scale modes
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]Choice
// @Router /api/v1/scales [get]
func listScales(c *gin.Context) {
	var out []Choice
	for _, m := range arp.ScaleModes() {
		slug, _ := m.MarshalText()
		out = append(out, Choice{ID: int(m), Slug: string(slug), Name: m.String()})
	}
	c.JSON(http.StatusOK, gin.H{"scales": out})
}

// listGateModes godoc
// @Summary List gate modes
// @Description Returns the gate shaping modes
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]Choice
// @Router /api/v1/gatemodes [get]
func listGateModes(c *gin.Context) {
	var out []Choice
	for _, g := range arp.GateModes() {
		slug, _ := g.MarshalText()
		out = append(out, Choice{ID: int(g), Slug: string(slug), Name: g.String()})
	}
	c.JSON(http.StatusOK, gin.H{"gateModes": out})
}

// TableResponse is the generated note table of a patch
type TableResponse struct {
	Pattern string `json:"pattern"`
	Notes   []int  `json:"notes"`
	Start   int    `json:"start"`
	Label   string `json:"label"`
}

// handleTable godoc
// @Summary Generate a note table
// @Description Returns the note table one cycle of the patch walks through. Enum fields take slugs.
// @Tags generate
// @Accept json
// @Produce json
// @Param patch body patch.Patch true "Patch; missing fields use defaults"
// @Success 200 {object} TableResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/table [post]
func handleTable(c *gin.Context) {
	p := patch.Default()
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cur := arp.NewCursor(p.Pattern, p.Params())
	table := cur.Table()
	c.JSON(http.StatusOK, TableResponse{
		Pattern: p.Pattern.String(),
		Notes:   table.Notes(),
		Start:   cur.Start(),
		Label:   fmt.Sprintf("L : %d  S : %d%s", p.Length, p.StepSize, p.Scale.Suffix()),
	})
}

// RenderRequest describes an offline render
type RenderRequest struct {
	Patch  *patch.Patch `json:"patch"`
	BPM    float64      `json:"bpm"`
	Steps  int          `json:"steps"`
	Root   float64      `json:"root"`
	Hold   bool         `json:"hold"`
	Seed   uint64       `json:"seed"`
	Pulses int          `json:"pulsesPerBeat"`
}

// handleRender godoc
// @Summary Render a patch to MIDI
// @Description Clocks the patch for the requested number of steps and returns a Standard MIDI File
// @Tags generate
// @Accept json
// @Produce audio/midi
// @Param request body RenderRequest true "Render request"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/render [post]
func handleRender(c *gin.Context) {
	defaults := patch.Default()
	req := RenderRequest{Patch: &defaults}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := render.DefaultConfig()
	if req.Patch != nil {
		cfg.Patch = *req.Patch
	}
	if req.BPM != 0 {
		cfg.BPM = req.BPM
	}
	if req.Steps != 0 {
		cfg.Steps = req.Steps
	}
	if req.Pulses != 0 {
		cfg.PulsesPerBeat = req.Pulses
	}
	cfg.Root = req.Root
	cfg.Hold = req.Hold
	cfg.Seed = req.Seed

	if cfg.Steps > maxRenderSteps {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("steps %d exceeds limit %d", cfg.Steps, maxRenderSteps)})
		return
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if frames := cfg.Frames(); frames > maxRenderFrames {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("render of %d frames exceeds limit %d", frames, maxRenderFrames)})
		return
	}

	perf, err := render.Run(cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	data, err := perf.MIDI()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	slug, _ := cfg.Patch.Pattern.MarshalText()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=arp32-%s.mid", slug))
	c.Data(http.StatusOK, "audio/midi", data)
}
