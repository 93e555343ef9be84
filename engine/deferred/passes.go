package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

var clearBlack = wgpu.Color{R: 0, G: 0, B: 0, A: 1}

// debugStripCount is the number of buffers shown along the bottom of the screen.
const debugStripCount = 5

func (d *Deferred) passes() []framegraph.Pass {
	res := d.resources
	fx := func(i int) framegraph.Output {
		return framegraph.Output{
			Framebuffer: res.FXFB,
			Retarget:    &framegraph.Retarget{Point: renderer.Color0, Resource: res.FX[i]},
		}
	}

	return []framegraph.Pass{
		{
			Name:     PassShadow,
			Output:   framegraph.Output{Framebuffer: res.ShadowFB},
			Viewport: &renderer.Viewport{Width: res.ShadowResolution, Height: res.ShadowResolution},
			Clear:    renderer.ClearDepth,
			Draw:     d.drawShadow,
		},
		{
			Name:       PassGBuffer,
			Inputs:     []renderer.ResourceHandle{res.Diffuse, res.Specular},
			Output:     framegraph.Output{Framebuffer: res.GBufferFB},
			Viewport:   &renderer.Viewport{Width: res.Width, Height: res.Height},
			Clear:      renderer.ClearColor | renderer.ClearDepth,
			ClearValue: clearBlack,
			Draw:       d.drawGBuffer,
		},
		{
			Name:       PassLighting,
			Inputs:     []renderer.ResourceHandle{res.Albedo, res.Normal, res.Depth, res.ShadowDepth},
			Output:     framegraph.Output{Framebuffer: res.LightFB},
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw:       d.drawLighting,
		},
		{
			Name:       PassSobel,
			Inputs:     []renderer.ResourceHandle{res.Light},
			Output:     fx(0),
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw: d.drawFX(ProgramSobel, res.Light, func(u *uniforms, ctx *framegraph.PassContext) {
				u.setFloat("Factor", ctx.State.Post.SobelFactor)
			}),
		},
		{
			Name:       PassCoc,
			Inputs:     []renderer.ResourceHandle{res.Depth},
			Output:     fx(3),
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw: d.drawFX(ProgramCoc, res.Depth, func(u *uniforms, ctx *framegraph.PassContext) {
				u.setMat4("ScreenToView", ctx.Matrices.ScreenToView).
					setVec3("Focus", ctx.State.Post.Focus.Vec3())
			}),
		},
		{
			Name:       PassBlurVertical,
			Inputs:     []renderer.ResourceHandle{res.FX[0]},
			Output:     fx(1),
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw:       d.drawBlur(res.FX[0], [2]int32{0, 1}),
		},
		{
			Name:       PassBlurHorizontal,
			Inputs:     []renderer.ResourceHandle{res.FX[1]},
			Output:     fx(2),
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw:       d.drawBlur(res.FX[1], [2]int32{1, 0}),
		},
		{
			Name:       PassGamma,
			Inputs:     []renderer.ResourceHandle{res.FX[2]},
			Output:     framegraph.Output{Framebuffer: renderer.ScreenFramebuffer},
			Viewport:   &renderer.Viewport{Width: res.Width, Height: res.Height},
			Clear:      renderer.ClearColor,
			ClearValue: clearBlack,
			Draw: d.drawFX(ProgramGamma, res.FX[2], func(u *uniforms, ctx *framegraph.PassContext) {
				u.setFloat("Gamma", ctx.State.Post.Gamma)
			}),
		},
		{
			Name:   PassLightMarkers,
			Output: framegraph.Output{Framebuffer: renderer.ScreenFramebuffer},
			Draw:   d.drawLightMarkers,
		},
		{
			Name:   PassDebugBlit,
			Inputs: []renderer.ResourceHandle{res.Albedo, res.Normal, res.Depth, res.ShadowDepth, res.FX[3]},
			Output: framegraph.Output{Framebuffer: renderer.ScreenFramebuffer},
			Draw:   d.drawDebugStrips,
		},
	}
}

func (d *Deferred) draw(ctx *framegraph.PassContext, program, mesh string, instances uint32, textures map[int]renderer.ResourceHandle) error {
	data, err := d.uniforms[program].bytes()
	if err != nil {
		return err
	}
	return ctx.Draw(renderer.DrawCall{
		Pipeline:  program,
		Mesh:      mesh,
		Instances: instances,
		Uniforms:  data,
		Textures:  textures,
	})
}

// drawShadow renders the first cube and the plane from the shadow caster. Without a spot light
// the cleared map is left as is.
func (d *Deferred) drawShadow(ctx *framegraph.PassContext) error {
	if !ctx.Matrices.HasShadow {
		return nil
	}
	u := d.uniforms[ProgramShadow]
	u.setMat4("objectToLightScreen", ctx.Matrices.ObjectToLightScreen).
		setMat4("objectToLight", ctx.Matrices.ObjectToLight).
		setFloat("GridSpacing", GridSpacing)
	if err := d.draw(ctx, ProgramShadow, model.CubeName, 1, nil); err != nil {
		return err
	}
	u.setFloat("GridSpacing", 0)
	return d.draw(ctx, ProgramShadow, model.PlaneName, 1, nil)
}

func (d *Deferred) drawGBuffer(ctx *framegraph.PassContext) error {
	specularPower := ctx.State.SpecularPower
	if specularPower <= 0 {
		specularPower = DefaultSpecularPower
	}
	u := d.uniforms[ProgramObject]
	u.setMat4("MVP", ctx.Matrices.MVP).
		setVec3("Camera", ctx.State.Camera.Eye()).
		setFloat("Time", ctx.State.Time).
		setFloat("specularPower", specularPower).
		setFloat("GridSpacing", GridSpacing)

	textures := map[int]renderer.ResourceHandle{0: d.resources.Diffuse, 1: d.resources.Specular}
	if err := d.draw(ctx, ProgramObject, model.CubeName, CubeInstances, textures); err != nil {
		return err
	}
	u.setFloat("GridSpacing", 0)
	return d.draw(ctx, ProgramObject, model.PlaneName, 1, textures)
}

// drawLighting accumulates one fullscreen quad per light: point lights, then spot lights, then
// directional lights. Each light's uniforms are written before its draw.
func (d *Deferred) drawLighting(ctx *framegraph.PassContext) error {
	res := d.resources
	gbuffer := map[int]renderer.ResourceHandle{0: res.Albedo, 1: res.Normal, 2: res.Depth}
	withShadow := map[int]renderer.ResourceHandle{0: res.Albedo, 1: res.Normal, 2: res.Depth, 3: res.ShadowDepth}
	eye := ctx.State.Camera.Eye()
	lights := &ctx.State.Lights

	u := d.uniforms[ProgramPointLight]
	u.setMat4("ScreenToWorld", ctx.Matrices.ScreenToWorld).setVec3("Camera", eye)
	for _, l := range lights.Point {
		u.setVec3("pointLightPosition", l.Position).
			setVec3("pointLightColor", l.Color).
			setFloat("pointLightIntensity", l.Intensity)
		if err := d.draw(ctx, ProgramPointLight, model.QuadName, 1, gbuffer); err != nil {
			return err
		}
	}

	u = d.uniforms[ProgramSpotLight]
	u.setMat4("ScreenToWorld", ctx.Matrices.ScreenToWorld).
		setMat4("worldToLightScreen", ctx.Matrices.Shadow.WorldToLightScreen).
		setVec3("Camera", eye).
		setFloat("bias", ctx.State.Post.ShadowBias)
	for i, l := range lights.Spot {
		castShadow := int32(0)
		if i == 0 {
			castShadow = 1
		}
		u.setVec3("spotLightPosition", l.Position).
			setVec3("spotLightDirection", l.Direction).
			setVec3("spotLightColor", l.Color).
			setFloat("spotLightIntensity", l.Intensity).
			setFloat("spotLightAngle", l.Angle).
			setInt("castShadow", castShadow)
		if err := d.draw(ctx, ProgramSpotLight, model.QuadName, 1, withShadow); err != nil {
			return err
		}
	}

	u = d.uniforms[ProgramDirectionalLight]
	u.setMat4("ScreenToWorld", ctx.Matrices.ScreenToWorld).setVec3("Camera", eye)
	for _, l := range lights.Directional {
		u.setVec3("directionalLightDirection", l.Direction).
			setVec3("directionalLightColor", l.Color).
			setFloat("directionalLightIntensity", l.Intensity)
		if err := d.draw(ctx, ProgramDirectionalLight, model.QuadName, 1, gbuffer); err != nil {
			return err
		}
	}
	return nil
}

// drawFX returns the draw of a single fullscreen quad sampling src at unit 0.
func (d *Deferred) drawFX(program string, src renderer.ResourceHandle, set func(*uniforms, *framegraph.PassContext)) func(*framegraph.PassContext) error {
	return func(ctx *framegraph.PassContext) error {
		set(d.uniforms[program], ctx)
		return d.draw(ctx, program, model.QuadName, 1, map[int]renderer.ResourceHandle{0: src})
	}
}

func (d *Deferred) drawBlur(src renderer.ResourceHandle, direction [2]int32) func(*framegraph.PassContext) error {
	return d.drawFX(ProgramBlur, src, func(u *uniforms, ctx *framegraph.PassContext) {
		u.setVec2i("Direction", direction).setInt("SampleCount", ctx.State.Post.SampleCount)
	})
}

// drawLightMarkers draws one sprite per point and spot light, colored like the light.
func (d *Deferred) drawLightMarkers(ctx *framegraph.PassContext) error {
	positions, colors := ctx.State.Lights.Markers()
	if len(positions) == 0 {
		return nil
	}

	u := d.uniforms[ProgramLightMarker]
	u.setMat4("MVP", ctx.Matrices.MVP).
		setFloat("SpriteWidth", 2*float32(d.markerSize)/float32(d.resources.Width)).
		setFloat("SpriteHeight", 2*float32(d.markerSize)/float32(d.resources.Height))
	data, err := u.bytes()
	if err != nil {
		return err
	}
	return ctx.Draw(renderer.DrawCall{
		Pipeline:  ProgramLightMarker,
		Mesh:      model.QuadName,
		Instances: uint32(len(positions)),
		Uniforms:  data,
		Storage: map[string][]byte{
			"lightPosition": light.MarshalVec3Array(positions),
			"lightColor":    light.MarshalVec3Array(colors),
		},
	})
}

// drawDebugStrips shows albedo, normal, depth, shadow map and circle of confusion in five
// strips of a fifth of the screen along the bottom edge.
func (d *Deferred) drawDebugStrips(ctx *framegraph.PassContext) error {
	res := d.resources
	strips := []struct {
		src     renderer.ResourceHandle
		isDepth bool
	}{
		{res.Albedo, false},
		{res.Normal, false},
		{res.Depth, true},
		{res.ShadowDepth, true},
		{res.FX[3], false},
	}

	w, h := res.Width/debugStripCount, res.Height/debugStripCount
	u := d.uniforms[ProgramBlit]
	for i, s := range strips {
		ctx.SetViewport(renderer.Viewport{X: i * res.Width / debugStripCount, Y: res.Height - h, Width: w, Height: h})
		isDepth := int32(0)
		if s.isDepth {
			isDepth = 1
		}
		u.setInt("isDepth", isDepth)
		if err := d.draw(ctx, ProgramBlit, model.QuadName, 1, map[int]renderer.ResourceHandle{0: s.src}); err != nil {
			return err
		}
	}
	u.setInt("isDepth", 0)
	return nil
}
