package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"narrated-video-pipeline/03_assets"
	"narrated-video-pipeline/types"
)

type generateResponse struct {
	Script   string         `json:"script"`
	AudioURL string         `json:"audio_url"`
	Assets   assetsResponse `json:"assets"`
}

type assetsResponse struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
}

// POST /generate, form field "prompt"
func (s *Server) handleGenerate(c *gin.Context) {
	prompt, ok := c.GetPostForm("prompt")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "form field \"prompt\" is required"})
		return
	}

	gen, err := s.gen.Generate(c.Request.Context(), prompt)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Script:   gen.Script,
		AudioURL: gen.Audio.URL,
		Assets: assetsResponse{
			Images: types.Paths(gen.Images),
			Videos: types.Paths(gen.Videos),
		},
	})
}

type finalVideoRequest struct {
	Audio  string `json:"audio"`
	Image  string `json:"image"`
	Video  string `json:"video"`
	Script string `json:"script"`
}

// POST /final-video
func (s *Server) handleFinalVideo(c *gin.Context) {
	var req finalVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := s.composition(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.comp.Compose(c.Request.Context(), job)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"final_video_url": out.URL})
}

// composition maps the public URLs of a request onto files under the static root.
func (s *Server) composition(req finalVideoRequest) (types.Composition, error) {
	if (req.Image == "") == (req.Video == "") {
		return types.Composition{}, fmt.Errorf("%w: exactly one of image or video is required", types.ErrInvalidComposition)
	}
	if req.Audio == "" {
		return types.Composition{}, fmt.Errorf("%w: audio is required", types.ErrInvalidComposition)
	}

	job := types.Composition{Script: req.Script}
	for _, f := range []struct {
		url string
		dst *string
	}{
		{req.Audio, &job.AudioPath},
		{req.Image, &job.ImagePath},
		{req.Video, &job.VideoPath},
	} {
		if f.url == "" {
			continue
		}
		p, err := assets.ResolveUnder(s.staticRoot, s.staticPrefix, f.url)
		if err != nil {
			return types.Composition{}, fmt.Errorf("%w: %v", types.ErrInvalidComposition, err)
		}
		*f.dst = p
	}
	return job, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Str("stage", "server").Str("path", c.Request.URL.Path).Err(err).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was ready.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, types.ErrInvalidComposition):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
