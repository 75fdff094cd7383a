package main

import (
	"flag"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"vistoria/config"
	"vistoria/models"
	"vistoria/session"
)

var (
	imagesDir     = flag.String("images_dir", "", "Directory with the inspection photos (overrides IMAGES_DIR).")
	zonesPath     = flag.String("zones", "", "GeoJSON file with the Quadra/Canteiro zones (overrides ZONES_PATH).")
	skipRename    = flag.Bool("skip_rename", false, "Keep the current file names instead of renaming to report names.")
	withSignature = flag.Bool("signature", false, "Append the signature page to the PDF.")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	if *imagesDir != "" {
		cfg.ImagesDir = *imagesDir
	}
	if *zonesPath != "" {
		cfg.ZonesPath = *zonesPath
	}

	log.Infof("Starting vistoria for %s", cfg.ImagesDir)

	s, err := session.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	if err := s.Scan(logProgress("Scanning")); err != nil {
		log.Fatalf("Failed to scan images: %v", err)
	}

	if !*skipRename {
		if _, err := s.RenameAll(logProgress("Renaming")); err != nil {
			log.Fatalf("Failed to rename images: %v", err)
		}
	}

	plan, pdfPath, err := s.BuildReport(*withSignature, logProgress("Rendering"))
	if err != nil {
		log.Fatalf("Failed to build report: %v", err)
	}

	if err := s.Save(); err != nil {
		log.Fatalf("Failed to save edit store: %v", err)
	}

	for _, r := range s.Results() {
		if r.Outcome != models.RecordOK {
			log.Warnf("%s: %s (%s)", r.Path, r.Reason, r.Outcome)
		}
	}

	log.Infof("Done: %s (%d pages)", pdfPath, plan.TotalPages)
}

// logProgress reports phase progress at every 10% step.
func logProgress(phase string) models.ProgressFunc {
	last := -1
	return func(current, total int) {
		if total == 0 {
			return
		}
		pct := current * 100 / total
		if pct/10 == last/10 && current != total {
			return
		}
		last = pct
		log.Infof("%s: %d/%d (%d%%)", phase, current, total, pct)
	}
}
