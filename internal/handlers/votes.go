package handlers

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/newsboard/internal/models"
)

// voteTarget names the votable row a toggle applies to.
type voteTarget struct {
	model  any    // &models.Post{} or &models.Comment{}
	column string // column of models.Vote referencing the item
	id     int
}

// toggleVote applies one toggle for userID inside tx and returns the item's
// new score and the user's new mark (-1, 0 or 1). Voting the current
// direction again removes the vote; the opposite direction flips it.
func toggleVote(tx *gorm.DB, userID int, target voteTarget, direction int) (int, int, error) {
	var existing models.Vote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND "+target.column+" = ?", userID, target.id).
		First(&existing).Error

	var delta, mark int
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		v := models.Vote{UserID: userID, Value: direction}
		id := target.id
		if target.column == "post_id" {
			v.PostID = &id
		} else {
			v.CommentID = &id
		}
		if err := tx.Create(&v).Error; err != nil {
			return 0, 0, err
		}
		delta, mark = direction, direction
	case err != nil:
		return 0, 0, err
	case existing.Value == direction:
		if err := tx.Delete(&existing).Error; err != nil {
			return 0, 0, err
		}
		delta, mark = -direction, 0
	default:
		if err := tx.Model(&existing).Update("value", direction).Error; err != nil {
			return 0, 0, err
		}
		delta, mark = 2*direction, direction
	}

	if err := tx.Model(target.model).Where("id = ?", target.id).
		Update("points", gorm.Expr("points + ?", delta)).Error; err != nil {
		return 0, 0, err
	}

	var score int
	if err := tx.Model(target.model).Select("points").Where("id = ?", target.id).Row().Scan(&score); err != nil {
		return 0, 0, err
	}
	return score, mark, nil
}

// viewerVotes returns the viewer's vote value per item id.
func viewerVotes(db *gorm.DB, userID int, column string, ids []int) map[int]int {
	votes := make(map[int]int, len(ids))
	if userID == 0 || len(ids) == 0 {
		return votes
	}

	var rows []models.Vote
	if err := db.Where("user_id = ? AND "+column+" IN ?", userID, ids).Find(&rows).Error; err != nil {
		return votes
	}
	for _, v := range rows {
		switch {
		case column == "post_id" && v.PostID != nil:
			votes[*v.PostID] = v.Value
		case column == "comment_id" && v.CommentID != nil:
			votes[*v.CommentID] = v.Value
		}
	}
	return votes
}
