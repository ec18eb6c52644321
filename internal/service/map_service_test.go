package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestGetTileCachesOnDisk(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") != tileUserAgent {
			t.Errorf("User-Agent manquant, got %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("fake-png-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	s := NewMapService(dir, server.URL, -18.8792, 47.5079, 13, zap.NewNop().Sugar())

	path1, err := s.GetTile(ctx, 13, 4096, 4096)
	if err != nil {
		t.Fatalf("GetTile failed: %v", err)
	}
	data, err := os.ReadFile(path1)
	if err != nil || string(data) != "fake-png-bytes" {
		t.Fatalf("tuile mal écrite sur disque: %v", err)
	}

	// Second appel: servi depuis le cache, aucun téléchargement
	path2, err := s.GetTile(ctx, 13, 4096, 4096)
	if err != nil {
		t.Fatalf("GetTile (cache) failed: %v", err)
	}
	if path1 != path2 {
		t.Errorf("chemins différents entre les deux appels: %s vs %s", path1, path2)
	}
	if hits.Load() != 1 {
		t.Errorf("le serveur de tuiles devrait être touché une seule fois, got %d", hits.Load())
	}
}

func TestGetTileServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewMapService(t.TempDir(), server.URL, -18.8792, 47.5079, 13, zap.NewNop().Sugar())
	if _, err := s.GetTile(context.Background(), 13, 1, 1); err == nil {
		t.Errorf("une tuile introuvable côté serveur devrait échouer")
	}
}

func TestGetTileRejectsInvalidCoordinates(t *testing.T) {
	s := NewMapService(t.TempDir(), "http://unused", -18.8792, 47.5079, 13, zap.NewNop().Sugar())
	if _, err := s.GetTile(context.Background(), -1, 0, 0); err == nil {
		t.Errorf("un zoom négatif devrait être rejeté")
	}
	if _, err := s.GetTile(context.Background(), 5, -2, 0); err == nil {
		t.Errorf("un x négatif devrait être rejeté")
	}
}

func TestLatLngToTile(t *testing.T) {
	// Origine de la projection: au zoom 1, (0,0) tombe dans la tuile (1,1)
	x, y := latLngToTile(0, 0, 1)
	if x != 1 || y != 1 {
		t.Errorf("latLngToTile(0,0,1) = (%d,%d), want (1,1)", x, y)
	}

	// Antananarivo au zoom 13
	x, y = latLngToTile(-18.8792, 47.5079, 13)
	if x != 5177 {
		t.Errorf("x = %d, want 5177", x)
	}
	if y != 4533 {
		t.Errorf("y = %d, want 4533", y)
	}
}

func TestMapConfig(t *testing.T) {
	s := NewMapService(t.TempDir(), "http://unused", -18.8792, 47.5079, 13, zap.NewNop().Sugar())
	cfg := s.Config()

	if cfg.CenterLat != -18.8792 || cfg.CenterLng != 47.5079 || cfg.DefaultZoom != 13 {
		t.Errorf("config centre/zoom inattendue: %+v", cfg)
	}
	if cfg.Bounds.MinLat >= cfg.Bounds.MaxLat || cfg.Bounds.MinLng >= cfg.Bounds.MaxLng {
		t.Errorf("bornes incohérentes: %+v", cfg.Bounds)
	}
}
