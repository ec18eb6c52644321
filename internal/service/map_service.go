package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/domain/apperr"
)

const (
	tileUserAgent     = "road-backend/1.0 (municipal road incident reporting)"
	tileMinZoom       = 10
	tileMaxZoom       = 18
	preloadDelay      = 100 * time.Millisecond
	tileClientTimeout = 5 * time.Second
)

// MapBounds délimite la zone servie par la municipalité.
type MapBounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

type MapConfigResponse struct {
	CenterLat       float64   `json:"center_lat"`
	CenterLng       float64   `json:"center_lng"`
	DefaultZoom     int       `json:"default_zoom"`
	MinZoom         int       `json:"min_zoom"`
	MaxZoom         int       `json:"max_zoom"`
	Bounds          MapBounds `json:"bounds"`
	TileURLTemplate string    `json:"tile_url_template"`
	OfflineTiles    bool      `json:"offline_tiles"`
}

type MapService interface {
	Config() MapConfigResponse
	// GetTile retourne le chemin du fichier tuile sur disque, en le
	// téléchargeant d'abord s'il n'est pas en cache.
	GetTile(ctx context.Context, z, x, y int) (string, error)
	// Preload lance le préchargement des tuiles de la zone configurée en
	// tâche de fond. Retourne false si un préchargement tourne déjà.
	Preload(minZoom, maxZoom int) bool
}

type mapService struct {
	tilesDir   string
	serverURL  string
	centerLat  float64
	centerLng  float64
	zoom       int
	client     *http.Client
	log        *zap.SugaredLogger
	preloading atomic.Bool
}

func NewMapService(tilesDir, serverURL string, centerLat, centerLng float64, zoom int, log *zap.SugaredLogger) MapService {
	return &mapService{
		tilesDir:  tilesDir,
		serverURL: serverURL,
		centerLat: centerLat,
		centerLng: centerLng,
		zoom:      zoom,
		client:    &http.Client{Timeout: tileClientTimeout},
		log:       log,
	}
}

func (s *mapService) Config() MapConfigResponse {
	return MapConfigResponse{
		CenterLat:       s.centerLat,
		CenterLng:       s.centerLng,
		DefaultZoom:     s.zoom,
		MinZoom:         tileMinZoom,
		MaxZoom:         tileMaxZoom,
		Bounds:          s.bounds(),
		TileURLTemplate: "/api/v1/map/tiles/{z}/{x}/{y}",
		OfflineTiles:    true,
	}
}

func (s *mapService) bounds() MapBounds {
	return MapBounds{
		MinLat: s.centerLat - 0.15,
		MaxLat: s.centerLat + 0.15,
		MinLng: s.centerLng - 0.15,
		MaxLng: s.centerLng + 0.15,
	}
}

func (s *mapService) GetTile(ctx context.Context, z, x, y int) (string, error) {
	if z < 0 || x < 0 || y < 0 || z > tileMaxZoom {
		return "", fmt.Errorf("invalid tile coordinates %d/%d/%d: %w", z, x, y, apperr.ErrValidation)
	}

	path := filepath.Join(s.tilesDir, fmt.Sprintf("%d", z), fmt.Sprintf("%d", x), fmt.Sprintf("%d.png", y))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := s.download(ctx, z, x, y, path); err != nil {
		return "", fmt.Errorf("tile %d/%d/%d unavailable: %w", z, x, y, apperr.ErrNotFound)
	}
	return path, nil
}

func (s *mapService) download(ctx context.Context, z, x, y int, path string) error {
	url := fmt.Sprintf("%s/%d/%d/%d.png", s.serverURL, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	// Le serveur de tuiles public exige un User-Agent identifiant
	req.Header.Set("User-Agent", tileUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warnw("tile download failed", "url", url, "error", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Warnw("tile server returned error", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("tile server returned %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (s *mapService) Preload(minZoom, maxZoom int) bool {
	if minZoom < tileMinZoom {
		minZoom = tileMinZoom
	}
	if maxZoom > tileMaxZoom {
		maxZoom = tileMaxZoom
	}
	if minZoom > maxZoom {
		return false
	}
	if !s.preloading.CompareAndSwap(false, true) {
		return false
	}

	// Tâche détachée, volontairement non annulable une fois lancée
	go func() {
		defer s.preloading.Store(false)
		b := s.bounds()
		total, fetched := 0, 0
		for z := minZoom; z <= maxZoom; z++ {
			minX, maxY := latLngToTile(b.MinLat, b.MinLng, z)
			maxX, minY := latLngToTile(b.MaxLat, b.MaxLng, z)
			for x := minX; x <= maxX; x++ {
				for y := minY; y <= maxY; y++ {
					total++
					if _, err := s.GetTile(context.Background(), z, x, y); err == nil {
						fetched++
					}
					// Délai fixe entre requêtes pour ménager le serveur
					time.Sleep(preloadDelay)
				}
			}
		}
		s.log.Infow("tile preload finished", "requested", total, "fetched", fetched,
			"min_zoom", minZoom, "max_zoom", maxZoom)
	}()
	return true
}

// latLngToTile projette une coordonnée WGS84 vers les indices de tuile XYZ
// (projection Web Mercator).
func latLngToTile(lat, lng float64, zoom int) (x, y int) {
	n := math.Exp2(float64(zoom))
	x = int((lng + 180.0) / 360.0 * n)
	latRad := lat * math.Pi / 180.0
	y = int((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n)
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
