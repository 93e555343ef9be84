package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// FXTextureCount is the number of post-processing textures swapped through the FX framebuffer:
// sobel, vertical blur, horizontal blur and circle of confusion.
const FXTextureCount = 4

// Resources holds every texture and framebuffer of the pipeline.
type Resources struct {
	Width, Height    int
	ShadowResolution int

	// Diffuse and Specular are the static surface textures.
	Diffuse, Specular renderer.ResourceHandle

	ShadowDepth renderer.ResourceHandle

	// Albedo (rgb albedo, a specular), Normal (xyz normal, w specular power) and Depth form the
	// G-buffer.
	Albedo, Normal, Depth renderer.ResourceHandle

	// Light accumulates the contribution of every light.
	Light renderer.ResourceHandle

	// FX[0] sobel, FX[1] vertical blur, FX[2] horizontal blur, FX[3] circle of confusion.
	FX [FXTextureCount]renderer.ResourceHandle

	ShadowFB, GBufferFB, LightFB, FXFB renderer.FramebufferHandle
}

func createResources(reg renderer.Registry, width, height, shadowRes int, diffuse, specular common.TextureStagingData) (*Resources, error) {
	res := &Resources{Width: width, Height: height, ShadowResolution: shadowRes}
	var err error

	if res.Diffuse, err = reg.CreateTexture("diffuse", diffuse); err != nil {
		return nil, err
	}
	if res.Specular, err = reg.CreateTexture("specular", specular); err != nil {
		return nil, err
	}

	if res.ShadowDepth, err = reg.CreateDepthTarget("shadow_depth", shadowRes, shadowRes, renderer.FormatDepth24,
		renderer.WithFilter(renderer.FilterLinear), renderer.WithCompare()); err != nil {
		return nil, err
	}
	if res.ShadowFB, err = reg.CreateFramebuffer("shadow", map[renderer.AttachmentPoint]renderer.ResourceHandle{
		renderer.Depth: res.ShadowDepth,
	}); err != nil {
		return nil, err
	}

	if res.Albedo, err = reg.CreateColorTarget("gbuffer_albedo", width, height, renderer.FormatRGBA8); err != nil {
		return nil, err
	}
	if res.Normal, err = reg.CreateColorTarget("gbuffer_normal", width, height, renderer.FormatRGBA32Float); err != nil {
		return nil, err
	}
	if res.Depth, err = reg.CreateDepthTarget("gbuffer_depth", width, height, renderer.FormatDepth24); err != nil {
		return nil, err
	}
	if res.GBufferFB, err = reg.CreateFramebuffer("gbuffer", map[renderer.AttachmentPoint]renderer.ResourceHandle{
		renderer.Color0: res.Albedo,
		renderer.Color1: res.Normal,
		renderer.Depth:  res.Depth,
	}); err != nil {
		return nil, err
	}

	if res.Light, err = reg.CreateColorTarget("light", width, height, renderer.FormatRGBA8); err != nil {
		return nil, err
	}
	if res.LightFB, err = reg.CreateFramebuffer("light", map[renderer.AttachmentPoint]renderer.ResourceHandle{
		renderer.Color0: res.Light,
	}); err != nil {
		return nil, err
	}

	for i := range res.FX {
		if res.FX[i], err = reg.CreateColorTarget(fmt.Sprintf("fx%d", i), width, height, renderer.FormatRGBA8); err != nil {
			return nil, err
		}
	}
	if res.FXFB, err = reg.CreateFramebuffer("fx", map[renderer.AttachmentPoint]renderer.ResourceHandle{
		renderer.Color0: res.FX[0],
	}); err != nil {
		return nil, err
	}
	return res, nil
}
