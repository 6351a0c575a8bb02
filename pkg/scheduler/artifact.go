package scheduler

import (
	"strings"

	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/prompt"
	"argos/pkg/util/context"
)

// artifactOf returns the artifact of the step, edits and comments are refused on cancelled pipelines
func artifactOf(p *api.Pipeline, stepID string) (*api.Step, error) {
	if p.Status == api.PipelineCancelled {
		return nil, InvalidStateError("pipeline %s is %s", p.ID, p.Status)
	}
	s, err := step(p, stepID)
	if err != nil {
		return nil, err
	}
	if !s.Status.HasArtifact() || s.Artifact == nil || s.Result == nil {
		return nil, ErrNoArtifact{Step: s.ID}
	}
	return s, nil
}

func checkLine(a *api.Artifact, lineIndex int) error {
	if lineIndex < 0 || lineIndex >= len(a.Lines) {
		return ErrOutOfRange{What: "line", Index: lineIndex, Length: len(a.Lines)}
	}
	return nil
}

func (sc *scheduler) EditArtifact(ctx context.Context, pid, stepID string, lineIndex int, content string) (api.PipelineView, error) {
	ctx = context.WithStepID(context.WithPipelineID(ctx, pid), stepID)
	var edit api.Edit
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		s, err := artifactOf(p, stepID)
		if err != nil {
			return err
		}
		a := s.Artifact
		if err := checkLine(a, lineIndex); err != nil {
			return err
		}
		edit = api.Edit{
			LineIndex:       lineIndex,
			OriginalContent: a.Lines[lineIndex],
			NewContent:      content,
			EditedAt:        sc.now(),
		}
		a.Edits = append(a.Edits, edit)
		a.Lines[lineIndex] = content

		// Later stages and exports read the result, keep it in line with the edited artifact
		text := strings.Join(a.Lines, "\n")
		reparsed := prompt.Parse(text)
		reparsed.Content = text
		reparsed.Placeholder = s.Result.Placeholder
		reparsed.ProviderUsed = s.Result.ProviderUsed
		reparsed.Latency = s.Result.Latency
		s.Result = &reparsed
		stepID = s.ID
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	ctx.Logger().Debugf("line %d of step %s edited", lineIndex, stepID)
	sc.notify(ctx, events.TypeArtifactEdited, stepID, events.ArtifactEditedData{
		LineIndex:       edit.LineIndex,
		OriginalContent: edit.OriginalContent,
		NewContent:      edit.NewContent,
	})
	return view, nil
}

func (sc *scheduler) AddComment(ctx context.Context, pid, stepID string, lineIndex int, text, author string) (api.Comment, api.PipelineView, error) {
	ctx = context.WithStepID(context.WithPipelineID(ctx, pid), stepID)
	var (
		comment api.Comment
		index   int
	)
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		s, err := artifactOf(p, stepID)
		if err != nil {
			return err
		}
		if err := checkLine(s.Artifact, lineIndex); err != nil {
			return err
		}
		comment = api.Comment{
			LineIndex: lineIndex,
			Text:      text,
			Author:    author,
			CreatedAt: sc.now(),
		}
		index = len(s.Artifact.Comments)
		s.Artifact.Comments = append(s.Artifact.Comments, comment)
		stepID = s.ID
		return nil
	})
	if err != nil {
		return api.Comment{}, api.PipelineView{}, err
	}

	sc.notify(ctx, events.TypeCommentAdded, stepID, events.CommentData{
		Index:     index,
		LineIndex: lineIndex,
		Author:    author,
		Text:      text,
	})
	return comment, view, nil
}

func (sc *scheduler) ResolveComment(ctx context.Context, pid, stepID string, commentIndex int) (api.PipelineView, error) {
	ctx = context.WithStepID(context.WithPipelineID(ctx, pid), stepID)
	var comment api.Comment
	view, err := sc.s.UpdatePipeline(ctx, pid, func(p *api.Pipeline) error {
		s, err := artifactOf(p, stepID)
		if err != nil {
			return err
		}
		comments := s.Artifact.Comments
		if commentIndex < 0 || commentIndex >= len(comments) {
			return ErrOutOfRange{What: "comment", Index: commentIndex, Length: len(comments)}
		}
		comments[commentIndex].Resolved = true
		comment = comments[commentIndex]
		stepID = s.ID
		return nil
	})
	if err != nil {
		return api.PipelineView{}, err
	}

	sc.notify(ctx, events.TypeCommentResolved, stepID, events.CommentData{
		Index:     commentIndex,
		LineIndex: comment.LineIndex,
		Author:    comment.Author,
	})
	return view, nil
}
