package transform

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forumlift/forumlift/internal/config"
	"github.com/forumlift/forumlift/internal/convert"
	"github.com/forumlift/forumlift/internal/idmap"
	"github.com/forumlift/forumlift/internal/models"
)

// Threads converts legacy discussion/comment pairs into threads and posts.
// A discussion without a resolved author or category mapping is skipped (and
// logged), never migrated with a dangling reference; the same holds per
// comment. Each thread's first post is synthesized from the discussion body
// under a derived comment key (the negated discussion ID), which cannot
// collide with any real comment ID.
func (t *Transformer) Threads(discussions []models.LegacyDiscussion, comments []models.LegacyComment) ([]models.Thread, []models.Post, *models.StageReport, *models.StageReport) {
	threadReport := &models.StageReport{}
	postReport := &models.StageReport{}

	commentsByDiscussion := make(map[int64][]models.LegacyComment)
	for _, c := range comments {
		commentsByDiscussion[c.DiscussionID] = append(commentsByDiscussion[c.DiscussionID], c)
	}
	for _, group := range commentsByDiscussion {
		sort.SliceStable(group, func(i, j int) bool { return group[i].CreatedAt.Before(group[j].CreatedAt) })
	}

	var threads []models.Thread
	var posts []models.Post

	for i := range discussions {
		d := &discussions[i]

		authorID, found := t.Maps.Lookup(idmap.KindUsers, d.AuthorID)
		if !found {
			threadReport.Skipped++
			t.Log.WithFields(logrus.Fields{"discussion_id": d.ID, "author_id": d.AuthorID}).
				Warn("skipping discussion with unresolved author")
			continue
		}

		categoryID, found := t.Maps.Lookup(idmap.KindCategories, d.CategoryID)
		if !found {
			threadReport.Skipped++
			t.Log.WithFields(logrus.Fields{"discussion_id": d.ID, "category_id": d.CategoryID}).
				Warn("skipping discussion with unresolved category")
			continue
		}

		title := truncate(d.Title, config.TitleMaxLen)

		thread := models.Thread{
			ID:         t.Maps.MapID(idmap.KindDiscussions, d.ID),
			LegacyID:   d.ID,
			CategoryID: categoryID,
			AuthorID:   authorID,
			Title:      title,
			Slug:       idmap.GenerateUniqueSlug(title, t.threadSlugs),
			IsPinned:   d.IsPinned,
			IsLocked:   d.IsLocked,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.CreatedAt,
			LastPostAt: lastActivity(d),
		}
		threads = append(threads, thread)
		threadReport.Created++

		// First post, synthesized from the discussion body.
		body := convert.Convert(d.Body, d.Format)
		posts = append(posts, models.Post{
			ID:          t.Maps.MapID(idmap.KindComments, -d.ID),
			LegacyID:    -d.ID,
			ThreadID:    thread.ID,
			AuthorID:    authorID,
			Content:     body.Markdown,
			ContentHTML: body.HTML,
			CreatedAt:   d.CreatedAt,
			UpdatedAt:   d.CreatedAt,
		})
		postReport.Created++

		for _, c := range commentsByDiscussion[d.ID] {
			commentAuthor, found := t.Maps.Lookup(idmap.KindUsers, c.AuthorID)
			if !found {
				postReport.Skipped++
				t.Log.WithFields(logrus.Fields{"comment_id": c.ID, "author_id": c.AuthorID}).
					Warn("skipping comment with unresolved author")
				continue
			}

			content := convert.Convert(c.Body, c.Format)
			updated := c.CreatedAt
			edited := false
			if c.UpdatedAt != nil && !c.UpdatedAt.Equal(c.CreatedAt) {
				updated = *c.UpdatedAt
				edited = true
			}

			posts = append(posts, models.Post{
				ID:          t.Maps.MapID(idmap.KindComments, c.ID),
				LegacyID:    c.ID,
				ThreadID:    thread.ID,
				AuthorID:    commentAuthor,
				Content:     content.Markdown,
				ContentHTML: content.HTML,
				IsEdited:    edited,
				CreatedAt:   c.CreatedAt,
				UpdatedAt:   updated,
			})
			postReport.Created++
		}
	}

	return threads, posts, threadReport, postReport
}

func lastActivity(d *models.LegacyDiscussion) time.Time {
	if d.LastCommentAt != nil && d.LastCommentAt.After(d.CreatedAt) {
		return *d.LastCommentAt
	}
	return d.CreatedAt
}
