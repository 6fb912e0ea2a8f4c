package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/ironsheep/proper-pixel-art/internal/imaging"
	"github.com/ironsheep/proper-pixel-art/internal/mesh"
	"github.com/ironsheep/proper-pixel-art/internal/palette"
	"github.com/ironsheep/proper-pixel-art/internal/pixelate"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "pixel_art_pixelate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "pixel_art_detect_mesh":
		return s.handleDetectMesh(args)
	case "pixel_art_mesh_overlay":
		return s.handleMeshOverlay(args)
	case "pixel_art_pixelate":
		return s.handlePixelate(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type detectMeshArgs struct {
	Path           string `json:"path"`
	InitialUpscale int    `json:"initial_upscale"`
	PixelWidth     int    `json:"pixel_width"`
}

// MeshInfo describes a detected mesh.
type MeshInfo struct {
	Cols          int     `json:"cols"`
	Rows          int     `json:"rows"`
	CellWidth     float64 `json:"cell_width"`
	CellHeight    float64 `json:"cell_height"`
	UpscaleFactor int     `json:"upscale_factor"`
	Attempts      int     `json:"attempts"`
	Fallback      bool    `json:"fallback"`
	XLines        []int   `json:"x_lines"`
	YLines        []int   `json:"y_lines"`
}

func newMeshInfo(r *mesh.Result) *MeshInfo {
	cw, ch := r.CellSize()
	return &MeshInfo{
		Cols:          r.Mesh.Cols(),
		Rows:          r.Mesh.Rows(),
		CellWidth:     cw,
		CellHeight:    ch,
		UpscaleFactor: r.UpscaleFactor,
		Attempts:      r.Attempts,
		Fallback:      r.Fallback,
		XLines:        r.Mesh.X,
		YLines:        r.Mesh.Y,
	}
}

func (s *Server) detect(a detectMeshArgs) (image.Image, *mesh.Result, error) {
	if a.InitialUpscale == 0 {
		a.InitialUpscale = pixelate.DefaultInitialUpscale
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}
	res, err := mesh.Detect(img, mesh.Options{
		UpscaleFactor: a.InitialUpscale,
		PixelWidth:    a.PixelWidth,
		Logger:        pixelate.Logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	return img, res, nil
}

func (s *Server) handleDetectMesh(args json.RawMessage) (interface{}, error) {
	var a detectMeshArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, res, err := s.detect(a)
	if err != nil {
		return nil, err
	}
	return newMeshInfo(res), nil
}

type meshOverlayArgs struct {
	detectMeshArgs
	LineColor string `json:"line_color"`
}

// MeshOverlayResult is a mesh drawn over the upscaled source.
type MeshOverlayResult struct {
	Mesh  *MeshInfo             `json:"mesh"`
	Image *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleMeshOverlay(args json.RawMessage) (interface{}, error) {
	var a meshOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	lineColor := imaging.DefaultLineColor
	if a.LineColor != "" {
		c, err := imaging.ParseHexColor(a.LineColor)
		if err != nil {
			return nil, err
		}
		lineColor = c
	}

	img, res, err := s.detect(a.detectMeshArgs)
	if err != nil {
		return nil, err
	}
	up := imaging.Upscale(img, res.UpscaleFactor)
	cw, ch := res.CellSize()
	label := fmt.Sprintf("%d,%d", int(cw+0.5), int(ch+0.5))
	enc, err := imaging.EncodePNG(imaging.MeshOverlay(up, res.Mesh.X, res.Mesh.Y, lineColor, label))
	if err != nil {
		return nil, err
	}
	return &MeshOverlayResult{Mesh: newMeshInfo(res), Image: enc}, nil
}

type pixelateArgs struct {
	Path            string  `json:"path"`
	Colors          int     `json:"colors"`
	PaletteMethod   string  `json:"palette_method"`
	ScaleResult     int     `json:"scale_result"`
	Transparent     bool    `json:"transparent"`
	Tolerance       float64 `json:"background_tolerance"`
	PixelWidth      int     `json:"pixel_width"`
	InitialUpscale  int     `json:"initial_upscale"`
	RemoveWatermark bool    `json:"remove_watermark"`
	Trim            bool    `json:"trim"`
	OutputPath      string  `json:"output_path"`
	IntermediateDir string  `json:"intermediate_dir"`
}

// PixelateResult is the outcome of a pixel_art_pixelate call.
type PixelateResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Mesh       *MeshInfo             `json:"mesh"`
	Palette    []string              `json:"palette,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handlePixelate(args json.RawMessage) (interface{}, error) {
	var a pixelateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	method, err := palette.ParseMethod(a.PaletteMethod)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := pixelate.Config{
		PaletteSize:           a.Colors,
		PaletteMethod:         method,
		ResultScale:           a.ScaleResult,
		TransparentBackground: a.Transparent,
		BackgroundTolerance:   a.Tolerance,
		PixelWidth:            a.PixelWidth,
		InitialUpscale:        a.InitialUpscale,
		RemoveWatermark:       a.RemoveWatermark,
		Trim:                  a.Trim,
	}
	var sink *imaging.DirSink
	if a.IntermediateDir != "" {
		sink = imaging.NewDirSink(a.IntermediateDir, pixelate.Logger())
		cfg.Diagnostics = sink
	}

	out, err := pixelate.Process(img, cfg)
	if sink != nil {
		_ = sink.Close()
	}
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := imaging.SavePNG(a.OutputPath, out.Image); err != nil {
			return nil, err
		}
		pixelate.Logger().Debug("pixelated image saved", slog.String("path", a.OutputPath))
	}

	enc, err := imaging.EncodePNG(out.Image)
	if err != nil {
		return nil, err
	}
	return &PixelateResult{
		Width:      enc.Width,
		Height:     enc.Height,
		Mesh:       newMeshInfo(out.Detection),
		Palette:    hexPalette(out.Palette),
		OutputPath: a.OutputPath,
		Image:      enc,
	}, nil
}

func hexPalette(p color.Palette) []string {
	if len(p) == 0 {
		return nil
	}
	out := make([]string, len(p))
	for i, c := range p {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		out[i] = fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
	}
	return out
}
