package jobs

import (
	"context"
	"log"
	"time"

	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/services"
)

// StartTrashPurgeJob runs an hourly sweep that permanently purges trash
// entries older than ttlDays. The lifecycle service stays the single purge
// primitive; this loop only schedules it.
func StartTrashPurgeJob(lifecycle *services.LifecycleService, files *repository.FileRepository, ttlDays int) {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			purgeExpiredTrash(lifecycle, files, ttlDays)
		}
	}()
}

func purgeExpiredTrash(lifecycle *services.LifecycleService, files *repository.FileRepository, ttlDays int) {
	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -ttlDays)

	expired, err := files.TrashedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("trash purge: %v", err)
		return
	}

	for _, file := range expired {
		if err := lifecycle.Purge(ctx, file.UserID, file.ID, models.ResourceFile); err != nil {
			log.Printf("trash purge %s: %v", file.ID, err)
		}
	}
	if len(expired) > 0 {
		log.Printf("trash purge: removed %d expired files", len(expired))
	}
}
