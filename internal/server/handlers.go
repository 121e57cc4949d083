package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/mauroandres1246/align-press-2/internal/detect"
)

// FrameResult is the POST /detect response body: a generated frame ID
// plus the engine's per-logo results for that frame.
type FrameResult struct {
	FrameID string              `json:"frame_id"`
	Results []detect.LogoResult `json:"results"`
}

// Server wires an Engine to the HTTP surface described above.
type Server struct {
	engine *detect.Engine
	hub    *Hub
	mu     sync.Mutex // serialises Detect calls on engine
}

// New builds a Server around an already-constructed Engine.
func New(engine *detect.Engine) *Server {
	return &Server{engine: engine, hub: NewHub()}
}

// Router assembles the gin.Engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), loggingMiddleware())

	r.POST("/detect", s.handleDetect)
	r.GET("/logos/positions", s.handlePositions)
	r.GET("/logos/:name/roi", s.handleROI)
	r.GET("/metrics", gin.WrapH(metricsHandler()))
	r.GET("/stream", s.hub.HandleStream)

	go s.hub.Run()
	return r
}

func (s *Server) handleDetect(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'image': " + err.Error()})
		return
	}
	defer file.Close()

	buf := make([]byte, 0, 1<<20)
	chunk := make([]byte, 64*1024)
	for {
		n, readErr := file.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	frame, err := gocv.IMDecode(buf, gocv.IMReadColor)
	if err != nil || frame.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not decode image"})
		return
	}
	defer frame.Close()

	var homOverride *[9]float64
	if raw := c.Request.FormValue("homography"); raw != "" {
		var hom [9]float64
		if err := json.Unmarshal([]byte(raw), &hom); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed homography field: " + err.Error()})
			return
		}
		homOverride = &hom
	}

	s.mu.Lock()
	results := s.engine.Detect(frame, homOverride)
	s.mu.Unlock()
	s.hub.Broadcast(results)

	c.JSON(http.StatusOK, FrameResult{FrameID: uuid.NewString(), Results: results})
}

func (s *Server) handlePositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.ExpectedPositionsPx())
}

func (s *Server) handleROI(c *gin.Context) {
	name := c.Param("name")
	bound, ok := s.engine.ROIBoundsPx(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown logo: " + name})
		return
	}
	c.JSON(http.StatusOK, bound)
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		c.Next()
		log.Printf("server: method=%s path=%s status=%d", c.Request.Method, path, c.Writer.Status())
	}
}
