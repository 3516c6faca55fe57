package fog

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	_ "image/jpeg" // register decoder for .jpg inputs
)

// Modality names the engine understands.
const (
	ModalityRGB     = "rgb"
	ModalityDepth   = "depth"
	ModalitySkyMask = "sky_mask"
)

// Dataset describes the input modalities for one fog run. Each modality
// maps to a directory of images; files are paired across modalities by
// their base name without extension.
type Dataset struct {
	Name         string
	Modalities   map[string]string
	Hierarchical map[string]string
}

// Result summarizes a fog generation run.
type Result struct {
	Processed int
	Skipped   []string
	// ModelCounts records how many images each fog model was applied to.
	ModelCounts map[string]int
}

// Engine produces foggy images from a dataset and a config.
type Engine interface {
	Generate(ctx context.Context, ds Dataset, cfg *Config, outputPath string) (*Result, error)
}

// Simulator is the CPU Engine. It applies homogeneous Beer-Lambert fog:
//
//	k = -ln(C_t) / V
//	I'(p) = I(p) * exp(-k*d(p)) + L * (1 - exp(-k*d(p)))
//
// where V is the sampled visibility, d the metric depth, and L the
// atmospheric light.
type Simulator struct {
	log *zap.Logger
}

// NewSimulator returns a CPU fog engine.
func NewSimulator(log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{log: log}
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Generate fogs every RGB image in the dataset and writes the results as
// PNG files under outputPath.
func (s *Simulator) Generate(ctx context.Context, ds Dataset, cfg *Config, outputPath string) (*Result, error) {
	rgbDir, ok := ds.Modalities[ModalityRGB]
	if !ok {
		return nil, fmt.Errorf("dataset %q has no %s modality", ds.Name, ModalityRGB)
	}
	depthDir, ok := ds.Modalities[ModalityDepth]
	if !ok {
		return nil, fmt.Errorf("dataset %q has no %s modality", ds.Name, ModalityDepth)
	}
	skyDir := ds.Modalities[ModalitySkyMask]

	if cfg.Device != "cpu" {
		s.log.Warn("requested device is unavailable, running on cpu",
			zap.String("device", cfg.Device))
	}
	for name, m := range cfg.Models {
		if m.KHetero != nil || m.LSHetero != nil {
			s.log.Warn("heterogeneous fog components are not supported by the cpu engine, applying homogeneous fog",
				zap.String("model", name))
		}
	}

	ids, err := listImageIDs(rgbDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s modality: %w", ModalityRGB, err)
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var seed int64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	res := &Result{ModelCounts: map[string]int{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.fogOne(ds.Name, id, rgbDir, depthDir, skyDir, cfg, rng, outputPath, res); err != nil {
			s.log.Warn("skipping image", zap.String("id", id), zap.Error(err))
			res.Skipped = append(res.Skipped, id)
		}
	}
	s.log.Info("fog generation complete",
		zap.String("dataset", ds.Name),
		zap.Int("processed", res.Processed),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (s *Simulator) fogOne(dataset, id, rgbDir, depthDir, skyDir string, cfg *Config, rng *rand.Rand, outDir string, res *Result) error {
	rgb, err := loadImage(rgbDir, id)
	if err != nil {
		return err
	}
	depth, err := loadImage(depthDir, id)
	if err != nil {
		return fmt.Errorf("no depth for %s: %w", id, err)
	}

	bounds := rgb.Bounds()
	if depth.Bounds().Dx() != bounds.Dx() || depth.Bounds().Dy() != bounds.Dy() {
		if cfg.ResizeDepth == nil || !*cfg.ResizeDepth {
			return fmt.Errorf("depth resolution %dx%d does not match rgb %dx%d",
				depth.Bounds().Dx(), depth.Bounds().Dy(), bounds.Dx(), bounds.Dy())
		}
		depth = resizeNearest(depth, bounds.Dx(), bounds.Dy())
	}

	name, model := cfg.pickModel(rng)
	visibility := model.Visibility.Sample(rng)
	if visibility <= 0 {
		return fmt.Errorf("model %q sampled non-positive visibility %g", name, visibility)
	}
	k := -math.Log(cfg.ContrastThreshold) / visibility

	light, err := atmosphericLight(model, rgb, skyDir, id)
	if err != nil {
		return err
	}

	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := depthMeters(depth, x-bounds.Min.X+depth.Bounds().Min.X, y-bounds.Min.Y+depth.Bounds().Min.Y, cfg.DepthScale)
			t := math.Exp(-k * d)
			r, g, b, _ := rgb.At(x, y).RGBA()
			out.SetRGBA(x, y, color.RGBA{
				R: attenuate(r, light[0], t),
				G: attenuate(g, light[1], t),
				B: attenuate(b, light[2], t),
				A: 0xff,
			})
		}
	}

	if err := savePNG(filepath.Join(outDir, id+".png"), out); err != nil {
		return err
	}
	res.Processed++
	res.ModelCounts[name]++
	s.log.Debug("fogged image",
		zap.String("dataset", dataset),
		zap.String("id", id),
		zap.String("model", name),
		zap.Float64("visibility_m", visibility))
	return nil
}

// attenuate blends one 16-bit channel sample toward the atmospheric
// light (0..255 scale) by transmittance t.
func attenuate(sample uint32, light, t float64) uint8 {
	v := float64(sample>>8)*t + light*(1-t)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

// atmosphericLight resolves a model's airlight to an RGB triple on the
// 0..255 scale. "from_sky" averages the input image over the sky mask;
// absent configuration means white.
func atmosphericLight(m Model, rgb image.Image, skyDir, id string) ([3]float64, error) {
	switch v := m.AtmosphericLight.(type) {
	case nil:
		return [3]float64{255, 255, 255}, nil
	case string:
		if v != "from_sky" {
			return [3]float64{}, fmt.Errorf("unknown atmospheric_light %q", v)
		}
		if skyDir == "" {
			return [3]float64{}, fmt.Errorf("atmospheric_light is from_sky but the dataset has no %s modality", ModalitySkyMask)
		}
		mask, err := loadImage(skyDir, id)
		if err != nil {
			return [3]float64{}, fmt.Errorf("no sky mask for %s: %w", id, err)
		}
		return skyMean(rgb, mask)
	case []any:
		if len(v) != 3 {
			return [3]float64{}, fmt.Errorf("atmospheric_light needs 3 components, got %d", len(v))
		}
		var out [3]float64
		for i, c := range v {
			f, ok := c.(float64)
			if !ok {
				return [3]float64{}, fmt.Errorf("atmospheric_light component %d is not a number", i)
			}
			out[i] = f
		}
		return out, nil
	default:
		return [3]float64{}, fmt.Errorf("atmospheric_light must be \"from_sky\" or [R,G,B]")
	}
}

// skyMean averages img over pixels where the mask is set. Falls back to
// white when the mask selects nothing.
func skyMean(img, mask image.Image) ([3]float64, error) {
	b := img.Bounds()
	mb := mask.Bounds()
	if mb.Dx() != b.Dx() || mb.Dy() != b.Dy() {
		return [3]float64{}, fmt.Errorf("sky mask resolution %dx%d does not match rgb %dx%d",
			mb.Dx(), mb.Dy(), b.Dx(), b.Dy())
	}
	var sum [3]float64
	var n int
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			mr, _, _, _ := mask.At(mb.Min.X+x, mb.Min.Y+y).RGBA()
			if mr>>8 <= 127 {
				continue
			}
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			sum[0] += float64(r >> 8)
			sum[1] += float64(g >> 8)
			sum[2] += float64(bl >> 8)
			n++
		}
	}
	if n == 0 {
		return [3]float64{255, 255, 255}, nil
	}
	return [3]float64{sum[0] / float64(n), sum[1] / float64(n), sum[2] / float64(n)}, nil
}

// depthMeters reads the depth sample at (x,y). Depth maps are grayscale
// images whose sample value on the 0..255 scale, multiplied by
// depth_scale, is the metric depth.
func depthMeters(depth image.Image, x, y int, scale float64) float64 {
	r, _, _, _ := depth.At(x, y).RGBA()
	return float64(r) / 256.0 * scale
}

func resizeNearest(src image.Image, w, h int) image.Image {
	sb := src.Bounds()
	dst := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sb.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// listImageIDs returns sorted base names (without extension) of image
// files directly under dir.
func listImageIDs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExts[ext] {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(ids)
	return ids, nil
}

// loadImage finds the file named id with any supported extension in dir.
func loadImage(dir, id string) (image.Image, error) {
	for ext := range imageExts {
		path := filepath.Join(dir, id+ext)
		f, err := os.Open(path) // #nosec G304 -- paths derived from user-supplied dataset directories
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("no image named %s in %s", id, dir)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) // #nosec G304 -- output path from user CLI flag
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
