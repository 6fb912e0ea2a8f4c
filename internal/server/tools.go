package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the source image (PNG, JPEG, GIF, WebP, BMP or TIFF)",
	}
}

func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"initial_upscale": map[string]interface{}{
			"type":        "integer",
			"description": "Nearest-neighbor upscale factor for the first detection attempt. Default 2",
			"default":     2,
			"minimum":     0,
		},
		"pixel_width": map[string]interface{}{
			"type":        "integer",
			"description": "Fixed logical pixel size in source pixels. 0 detects it automatically",
			"default":     0,
			"minimum":     0,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	overlayProps := detectionProperties()
	overlayProps["line_color"] = map[string]interface{}{
		"type":        "string",
		"description": "Mesh line color as hex (e.g. #FF0000). Default red",
		"default":     "#FF0000",
	}

	pixelateProps := detectionProperties()
	pixelateProps["colors"] = map[string]interface{}{
		"type":        "integer",
		"description": "Palette size (1-256). 0 skips quantization and keeps the source colors and alpha",
		"default":     0,
		"minimum":     0,
		"maximum":     256,
	}
	pixelateProps["palette_method"] = map[string]interface{}{
		"type":        "string",
		"description": "Palette fitting algorithm",
		"enum":        []string{"mediancut", "kmeans", "dominant"},
		"default":     "mediancut",
	}
	pixelateProps["scale_result"] = map[string]interface{}{
		"type":        "integer",
		"description": "Nearest-neighbor enlargement of the result for display. Default 1",
		"default":     1,
		"minimum":     0,
	}
	pixelateProps["transparent"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Make the background connected to the image corners transparent",
		"default":     false,
	}
	pixelateProps["background_tolerance"] = map[string]interface{}{
		"type":        "number",
		"description": "CIE Lab distance a background pixel may differ from its corner. Default 0.03",
		"default":     0.03,
		"minimum":     0,
	}
	pixelateProps["remove_watermark"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Erase a generator watermark in the bottom-right corner before detection",
		"default":     false,
	}
	pixelateProps["trim"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Crop transparent margins from the result",
		"default":     false,
	}
	pixelateProps["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to write the result as PNG",
	}
	pixelateProps["intermediate_dir"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional directory for intermediate snapshots (mesh overlays, palette, quantized image)",
	}

	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it has transparency.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pixel_art_detect_mesh",
			Description: "Detect the logical pixel grid of generated pixel art. Returns the cell count, the cell size in source pixels and the grid line positions in upscaled coordinates.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "pixel_art_mesh_overlay",
			Description: "Draw the detected pixel grid over the upscaled source and return it as base64-encoded PNG. Use this to check a detection visually.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": overlayProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "pixel_art_pixelate",
			Description: "Convert generated pixel-art-style artwork into true pixel art with one pixel per logical pixel. Returns the result as base64-encoded PNG and optionally writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pixelateProps,
				"required":   []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
