package opengl

// Reserved texture units, allocated once and disjoint by construction.
// Material sampling never overlaps filter or shadow sampling.
const (
	TexUnitAlbedo            = 0
	TexUnitFilterColor       = 1
	TexUnitFilterDepth       = 2
	TexUnitShadowDirectional = 3
	TexUnitShadowPoint       = 4
)

// ── Scene shaders ─────────────────────────────────────────────────────────────

// sceneVertSrc — world-space position and normal to the fragment stage.
const sceneVertSrc = `
#version 410 core
layout(location = 0) in vec3 in_position;
layout(location = 1) in vec3 in_normal;
layout(location = 2) in vec2 in_uv;
layout(location = 3) in vec4 in_color;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_projection;

out vec3 frag_world_pos;
out vec3 frag_normal;
out vec2 frag_uv;
out vec4 frag_color;

void main() {
    vec4 world = u_model * vec4(in_position, 1.0);
    gl_Position    = u_projection * u_view * world;
    frag_world_pos = world.xyz;
    frag_normal    = mat3(u_model) * in_normal;
    frag_uv        = in_uv;
    frag_color     = in_color;
}
` + "\x00"

// shadowVertSrc — scene vertex shader plus the two shadow-space positions.
// With an identity shadow matrix the projected coordinates are the world
// coordinates, which can land inside the depth map as well as outside it.
// Both cases sample as fully lit: outside, the border depth is 1.0; inside,
// the map was cleared to 1.0 at allocation and never rendered to.
const shadowVertSrc = `
#version 410 core
layout(location = 0) in vec3 in_position;
layout(location = 1) in vec3 in_normal;
layout(location = 2) in vec2 in_uv;
layout(location = 3) in vec4 in_color;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_projection;
uniform mat4 u_shadow_pv_directional;
uniform mat4 u_shadow_pv_point;

out vec3 frag_world_pos;
out vec3 frag_normal;
out vec2 frag_uv;
out vec4 frag_color;
out vec4 frag_shadow_dir_pos;
out vec4 frag_shadow_point_pos;

void main() {
    vec4 world = u_model * vec4(in_position, 1.0);
    gl_Position           = u_projection * u_view * world;
    frag_world_pos        = world.xyz;
    frag_normal           = mat3(u_model) * in_normal;
    frag_uv               = in_uv;
    frag_color            = in_color;
    frag_shadow_dir_pos   = u_shadow_pv_directional * world;
    frag_shadow_point_pos = u_shadow_pv_point * world;
}
` + "\x00"

// lightingGLSL — shared Blinn-Phong evaluation over the u_lights array.
// kind: 0 = ambient, 1 = directional, 2 = point.
const lightingGLSL = `
struct LightSource {
    int   kind;
    vec3  color;
    float intensity;
    vec3  position;
    vec3  direction;
};
#define MAX_LIGHTS 8
uniform LightSource u_lights[MAX_LIGHTS];
uniform int  u_light_count;
uniform vec3 u_eye;

uniform vec3  u_mat_albedo;
uniform vec3  u_mat_specular;
uniform float u_mat_shininess;

vec3 shadeLight(LightSource light, vec3 albedo, vec3 normal, vec3 worldPos, float shadow) {
    if (light.kind == 0) {
        return light.color * light.intensity * albedo;
    }

    vec3 toLight;
    float attenuation = 1.0;
    if (light.kind == 1) {
        toLight = normalize(-light.direction);
    } else {
        vec3 delta = light.position - worldPos;
        float dist = length(delta);
        toLight = delta / max(dist, 0.0001);
        attenuation = 1.0 / (1.0 + 0.09 * dist + 0.032 * dist * dist);
    }

    float diff = max(dot(normal, toLight), 0.0);

    vec3 viewDir = normalize(u_eye - worldPos);
    vec3 halfDir = normalize(toLight + viewDir);
    float spec = pow(max(dot(normal, halfDir), 0.0), u_mat_shininess);

    vec3 diffuse  = diff * light.color * albedo;
    vec3 specular = spec * light.color * u_mat_specular;
    return (diffuse + specular) * light.intensity * attenuation * shadow;
}
`

// phongFragSrc — Blinn-Phong over the light array, no textures.
const phongFragSrc = `
#version 410 core
in vec3 frag_world_pos;
in vec3 frag_normal;
in vec2 frag_uv;
in vec4 frag_color;

out vec4 out_color;
` + lightingGLSL + `
void main() {
    vec3 normal = normalize(frag_normal);
    vec3 albedo = u_mat_albedo * frag_color.rgb;

    vec3 result = vec3(0.0);
    for (int i = 0; i < u_light_count; i++) {
        result += shadeLight(u_lights[i], albedo, normal, frag_world_pos, 1.0);
    }
    out_color = vec4(result, 1.0);
}
` + "\x00"

// texturedFragSrc — Blinn-Phong multiplied with the albedo texture.
const texturedFragSrc = `
#version 410 core
in vec3 frag_world_pos;
in vec3 frag_normal;
in vec2 frag_uv;
in vec4 frag_color;

out vec4 out_color;

uniform sampler2D u_albedo_tex;
uniform bool u_has_texture;
` + lightingGLSL + `
void main() {
    vec3 normal = normalize(frag_normal);
    vec3 albedo = u_mat_albedo * frag_color.rgb;
    if (u_has_texture) {
        albedo *= texture(u_albedo_tex, frag_uv).rgb;
    }

    vec3 result = vec3(0.0);
    for (int i = 0; i < u_light_count; i++) {
        result += shadeLight(u_lights[i], albedo, normal, frag_world_pos, 1.0);
    }
    out_color = vec4(result, 1.0);
}
` + "\x00"

// shadowFragSrc — textured Blinn-Phong with hardware-PCF shadow lookups.
// Directional and point lights read their own depth maps; ambient lights and
// the non-primary lights of each kind shade unshadowed.
const shadowFragSrc = `
#version 410 core
in vec3 frag_world_pos;
in vec3 frag_normal;
in vec2 frag_uv;
in vec4 frag_color;
in vec4 frag_shadow_dir_pos;
in vec4 frag_shadow_point_pos;

out vec4 out_color;

uniform sampler2D u_albedo_tex;
uniform bool u_has_texture;
uniform sampler2DShadow u_shadow_tex_directional;
uniform sampler2DShadow u_shadow_tex_point;
` + lightingGLSL + `
float shadowFactor(sampler2DShadow depthMap, vec4 shadowPos) {
    vec3 proj = shadowPos.xyz / shadowPos.w;
    proj = proj * 0.5 + 0.5;
    if (proj.z > 1.0) {
        return 1.0;
    }
    return texture(depthMap, vec3(proj.xy, proj.z - 0.002));
}

void main() {
    vec3 normal = normalize(frag_normal);
    vec3 albedo = u_mat_albedo * frag_color.rgb;
    if (u_has_texture) {
        albedo *= texture(u_albedo_tex, frag_uv).rgb;
    }

    float dirShadow   = shadowFactor(u_shadow_tex_directional, frag_shadow_dir_pos);
    float pointShadow = shadowFactor(u_shadow_tex_point, frag_shadow_point_pos);

    bool dirShadowed   = false;
    bool pointShadowed = false;

    vec3 result = vec3(0.0);
    for (int i = 0; i < u_light_count; i++) {
        float shadow = 1.0;
        if (u_lights[i].kind == 1 && !dirShadowed) {
            shadow = dirShadow;
            dirShadowed = true;
        } else if (u_lights[i].kind == 2 && !pointShadowed) {
            shadow = pointShadow;
            pointShadowed = true;
        }
        result += shadeLight(u_lights[i], albedo, normal, frag_world_pos, shadow);
    }
    out_color = vec4(result, 1.0);
}
` + "\x00"

// ── Pixel-filter shaders ──────────────────────────────────────────────────────

// filterVertSrc — fullscreen triangle via gl_VertexID (no VBO needed).
const filterVertSrc = `
#version 410 core
out vec2 frag_uv;
void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    frag_uv     = pos[gl_VertexID] * 0.5 + 0.5;
}
` + "\x00"

// filterFragSrc — samples the offscreen color/depth pair through the filter
// selected by u_filter_index. Negative index passes color through untouched.
const filterFragSrc = `
#version 410 core
in  vec2 frag_uv;
out vec4 out_color;

uniform sampler2D u_color_tex;
uniform sampler2D u_depth_tex;
uniform int       u_filter_index;

void main() {
    vec3 c = texture(u_color_tex, frag_uv).rgb;

    if (u_filter_index == 0) {
        // Grayscale
        c = vec3(dot(c, vec3(0.2126, 0.7152, 0.0722)));
    } else if (u_filter_index == 1) {
        // Invert
        c = vec3(1.0) - c;
    } else if (u_filter_index == 2) {
        // Sepia
        c = vec3(dot(c, vec3(0.393, 0.769, 0.189)),
                 dot(c, vec3(0.349, 0.686, 0.168)),
                 dot(c, vec3(0.272, 0.534, 0.131)));
    } else if (u_filter_index == 3) {
        // Depth visualization
        float d = texture(u_depth_tex, frag_uv).r;
        c = vec3(pow(d, 32.0));
    }

    out_color = vec4(c, 1.0);
}
` + "\x00"

// FilterCount is the number of selectable pixel filters.
const FilterCount = 4

// ── Gizmo shaders ─────────────────────────────────────────────────────────────

const gizmoVertSrc = `
#version 410 core
layout(location = 0) in vec3 in_position;

uniform mat4 u_model;
uniform mat4 u_view;
uniform mat4 u_projection;

void main() {
    gl_Position = u_projection * u_view * u_model * vec4(in_position, 1.0);
}
` + "\x00"

const gizmoFragSrc = `
#version 410 core
out vec4 out_color;

uniform vec3 u_color;

void main() {
    out_color = vec4(u_color, 1.0);
}
` + "\x00"

// ── Constructors ──────────────────────────────────────────────────────────────

func NewPhongShader() (*Shader, error) {
	return NewShader("phong", sceneVertSrc, phongFragSrc)
}

func NewTexturedShader() (*Shader, error) {
	sh, err := NewShader("textured", sceneVertSrc, texturedFragSrc)
	if err != nil {
		return nil, err
	}
	sh.Use()
	sh.SetUniform1i("u_albedo_tex", TexUnitAlbedo)
	sh.Unuse()
	return sh, nil
}

func NewShadowShader() (*Shader, error) {
	sh, err := NewShader("shadow", shadowVertSrc, shadowFragSrc)
	if err != nil {
		return nil, err
	}
	sh.Use()
	sh.SetUniform1i("u_albedo_tex", TexUnitAlbedo)
	sh.SetUniform1i("u_shadow_tex_directional", TexUnitShadowDirectional)
	sh.SetUniform1i("u_shadow_tex_point", TexUnitShadowPoint)
	sh.Unuse()
	return sh, nil
}

func NewFilterShader() (*Shader, error) {
	sh, err := NewShader("filter", filterVertSrc, filterFragSrc)
	if err != nil {
		return nil, err
	}
	sh.Use()
	sh.SetUniform1i("u_color_tex", TexUnitFilterColor)
	sh.SetUniform1i("u_depth_tex", TexUnitFilterDepth)
	sh.Unuse()
	return sh, nil
}

func NewGizmoShader() (*Shader, error) {
	return NewShader("gizmo", gizmoVertSrc, gizmoFragSrc)
}
