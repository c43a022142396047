package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/schoolguard/sg-cctv/internal/config"
	"github.com/schoolguard/sg-cctv/internal/data"
)

// The default campus layout: eight cameras, the first four on the
// dashboard grid. Re-running the seed is safe; existing labels are kept.
var seedCameras = []data.Camera{
	{CameraLabel: "CCTV-01", Name: "CCTV 01 - Front Hall", Location: "Front Hall", Status: "active", VideoKey: "videos/camera-01-front-hall.mp4", ThumbnailKey: "thumbnails/camera-01-front-hall.jpg", IsActive: true},
	{CameraLabel: "CCTV-02", Name: "CCTV 02 - Parking Area", Location: "Parking Space", Status: "active", VideoKey: "videos/camera-02-parking.mp4", ThumbnailKey: "thumbnails/camera-02-parking.jpg", IsActive: true},
	{CameraLabel: "CCTV-03", Name: "CCTV 03 - Backyard", Location: "Backyard", Status: "active", VideoKey: "videos/camera-03-backyard.mp4", ThumbnailKey: "thumbnails/camera-03-backyard.jpg", IsActive: true},
	{CameraLabel: "CCTV-04", Name: "CCTV 04 - Classroom A", Location: "Front Class", Status: "active", VideoKey: "videos/camera-04-classroom.mp4", ThumbnailKey: "thumbnails/camera-04-classroom.jpg", IsActive: true},
	{CameraLabel: "CCTV-05", Name: "CCTV 05 - Playground", Location: "Playground", Status: "active", VideoKey: "videos/camera-05-playground.mp4", ThumbnailKey: "thumbnails/camera-05-playground.jpg", IsActive: false},
	{CameraLabel: "CCTV-06", Name: "CCTV 06 - Cafeteria", Location: "Cafeteria", Status: "active", VideoKey: "videos/camera-06-cafeteria.mp4", ThumbnailKey: "thumbnails/camera-06-cafeteria.jpg", IsActive: false},
	{CameraLabel: "CCTV-07", Name: "CCTV 07 - Hallway A", Location: "Hallway A", Status: "active", VideoKey: "videos/camera-07-hallway-a.mp4", ThumbnailKey: "thumbnails/camera-07-hallway-a.jpg", IsActive: false},
	{CameraLabel: "CCTV-08", Name: "CCTV 08 - Hallway B", Location: "Hallway B", Status: "active", VideoKey: "videos/camera-08-hallway-b.mp4", ThumbnailKey: "thumbnails/camera-08-hallway-b.jpg", IsActive: false},
}

func main() {
	cfgPath := flag.String("config", "config/default.yaml", "Config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	model := data.CameraModel{DB: db}
	seeded := 0
	for i := range seedCameras {
		c := seedCameras[i]
		if err := model.Insert(ctx, &c); err != nil {
			log.Fatalf("Seed %s failed: %v", c.CameraLabel, err)
		}
		if c.ID != 0 {
			seeded++
		}
	}
	log.Printf("Seed complete: %d new cameras, %d already present", seeded, len(seedCameras)-seeded)
}
