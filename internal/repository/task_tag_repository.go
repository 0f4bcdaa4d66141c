package repository

import (
	"github.com/yukikurage/tasktag-api/internal/models"
	"gorm.io/gorm"
)

// insertTaskTags links taskID to tagIDs, recording each tag's position in the list
func insertTaskTags(tx *gorm.DB, taskID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	rows := make([]models.TaskTag, len(tagIDs))
	for i, tagID := range tagIDs {
		rows[i] = models.TaskTag{
			TaskID:   taskID,
			TagID:    tagID,
			Position: i,
		}
	}

	return tx.Create(&rows).Error
}

// deleteTaskTags removes every association of taskID
func deleteTaskTags(tx *gorm.DB, taskID string) error {
	return tx.Where("task_id = ?", taskID).Delete(&models.TaskTag{}).Error
}

// replaceTaskTags swaps the whole association set of taskID for tagIDs.
// Callers must pass a transaction holding the task row lock.
func replaceTaskTags(tx *gorm.DB, taskID string, tagIDs []string) error {
	if err := deleteTaskTags(tx, taskID); err != nil {
		return err
	}
	return insertTaskTags(tx, taskID, tagIDs)
}

type taskTagRow struct {
	TaskID string
	TagID  string
	Name   string
}

// attachTags loads the tags of all tasks in one join and sets Task.Tags in position order.
// Tasks without associations get an empty, non-nil slice.
func attachTags(db *gorm.DB, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}

	var rows []taskTagRow
	if err := db.Table("task_tags").
		Select("task_tags.task_id, tags.id AS tag_id, tags.name").
		Joins("JOIN tags ON tags.id = task_tags.tag_id").
		Where("task_tags.task_id IN ?", ids).
		Order("task_tags.task_id, task_tags.position").
		Scan(&rows).Error; err != nil {
		return err
	}

	byTask := make(map[string][]models.Tag, len(tasks))
	for _, row := range rows {
		byTask[row.TaskID] = append(byTask[row.TaskID], models.Tag{
			ID:   row.TagID,
			Name: row.Name,
		})
	}

	for i := range tasks {
		tags := byTask[tasks[i].ID]
		if tags == nil {
			tags = []models.Tag{}
		}
		tasks[i].Tags = tags
	}

	return nil
}
