// Command ingest scans a directory of stat-screen screenshots, runs OCR and
// parsing on each, and stores pending snapshots for a profile. With --watch it
// keeps running and picks up files as they are dropped in. Useful for bulk
// imports and for setups where screenshots land on disk via other tooling.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"divetrack/models"
	"divetrack/pkg/ocr"
	"divetrack/pkg/statparse"
)

var db *gorm.DB

var verbose bool

func main() {
	dirFlag := flag.String("dir", "uploads/inbox", "directory to scan for stat screenshots")
	profileID := flag.Uint("profile-id", 0, "Profile ID to assign snapshots to (if omitted attempts admin profile)")
	dryRun := flag.Bool("dry-run", false, "OCR and parse only; print results, skip all DB writes")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	if *dryRun {
		files := listImageFiles(*dirFlag)
		log.Printf("Dry-run: %d candidate files in %s", len(files), *dirFlag)
		for _, f := range files {
			text, err := ocr.RecognizeScreenshot(filepath.Join(*dirFlag, f))
			if err != nil {
				log.Printf("%s: ocr failed: %v", f, err)
				continue
			}
			res := statparse.Parse(text)
			log.Printf("%s: layout=%s stats=%d name=%v", f, statparse.DetectLayout(text), len(res.Stats), res.PlayerName)
		}
		return
	}

	db = mustInitDBFromEnv()
	profile := resolveProfile(*profileID)

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, profile, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, profile, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// resolveProfile finds the profile either by explicit id or by admin username.
func resolveProfile(id uint) models.Profile {
	var p models.Profile
	if id != 0 {
		if err := db.First(&p, id).Error; err != nil {
			log.Fatalf("failed to find profile id %d: %v", id, err)
		}
		return p
	}
	var admin models.User
	if err := db.Where("username = ?", "admin").First(&admin).Error; err != nil {
		log.Fatalf("no --profile-id provided and admin user not found: %v", err)
	}
	if err := db.Where("user_id = ?", admin.ID).First(&p).Error; err != nil {
		log.Fatalf("admin profile not found: %v", err)
	}
	return p
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

func watchDirectory(dir string, profile models.Profile, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// debounce: wait until a file stops changing before processing it
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	go runWorkerPool(dir, profile, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

// runWorkerPool processes filenames from the initial list and any extra
// channels on a fixed number of workers. Each file becomes its own
// single-image snapshot: batch ordering only exists for interactive uploads.
func runWorkerPool(dir string, profile models.Profile, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, profile)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile OCRs and parses one screenshot and stores a pending
// snapshot, skipping files already ingested for this profile.
func processSingleFile(dir, name string, profile models.Profile) {
	path := filepath.Join(dir, name)

	var existing models.Screenshot
	if err := db.Where("profile_id = ? AND file_name = ?", profile.ID, name).First(&existing).Error; err == nil {
		logV("SKIP already ingested %s", name)
		return
	}

	text, ocrErr := ocr.RecognizeScreenshot(path)
	shot := models.Screenshot{ProfileID: profile.ID, FileName: name, StorePath: path}
	if ocrErr != nil {
		shot.Failed = true
		shot.FailedReason = ocrErr.Error()
		if err := db.Create(&shot).Error; err != nil {
			log.Printf("ERROR create screenshot %s: %v", name, err)
		}
		log.Printf("OCR fail %s: %v", name, ocrErr)
		return
	}

	res := statparse.Parse(text)
	snapshot := models.StatSnapshot{ProfileID: profile.ID, Status: models.SnapshotPending}
	if res.PlayerName != nil {
		snapshot.PlayerName = *res.PlayerName
	}
	if err := db.Create(&snapshot).Error; err != nil {
		log.Printf("ERROR create snapshot for %s: %v", name, err)
		return
	}
	for _, key := range statparse.AllStatKeys {
		v, ok := res.Stats[key]
		if !ok {
			continue
		}
		sv := models.StatValue{SnapshotID: snapshot.ID, Key: string(key), Value: v, Confidence: string(res.Confidence[key])}
		if err := db.Create(&sv).Error; err != nil {
			log.Printf("ERROR create stat value %s/%s: %v", name, key, err)
		}
	}
	sid := snapshot.ID
	shot.SnapshotID = &sid
	shot.Layout = statparse.DetectLayout(text).String()
	if err := db.Create(&shot).Error; err != nil {
		log.Printf("ERROR create screenshot %s: %v", name, err)
		return
	}
	log.Printf("NEW snapshot id=%d file=%s stats=%d", snapshot.ID, name, len(res.Stats))
}
