package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

// RunNotifier pushes run-level events (auth failure, progress, completion)
// to the chat channels. Every send is best effort: failures are logged and
// never propagated to the sync loop.
type RunNotifier struct {
	WeCom  *WeComClient
	Feishu *FeishuClient

	// DetailLogURL is linked from the completion card, when set.
	DetailLogURL string
	// AtUserID is @-mentioned on the completion card, when set.
	AtUserID string
}

func (n *RunNotifier) AuthFailed(ctx context.Context, reason string) {
	if n == nil {
		return
	}
	if n.Feishu != nil {
		if err := n.Feishu.SendRichPost(ctx, "CRM sync failed", []string{reason}); err != nil {
			log.Printf("feishu auth-failure notice failed: %v", err)
		}
	}
	if n.WeCom != nil {
		if err := n.WeCom.SendMarkdown(ctx, "**CRM sync failed**\n> "+reason); err != nil {
			log.Printf("wecom auth-failure notice failed: %v", err)
		}
	}
}

func (n *RunNotifier) Progress(ctx context.Context, done, total, success, fail int) {
	if n == nil || n.Feishu == nil {
		return
	}
	lines := []string{
		fmt.Sprintf("%d/%d", done, total),
		fmt.Sprintf("success: %d", success),
		fmt.Sprintf("failed: %d", fail),
	}
	if err := n.Feishu.SendRichPost(ctx, "CRM sync progress", lines); err != nil {
		log.Printf("feishu progress notice failed: %v", err)
	}
}

func (n *RunNotifier) RecordFailed(ctx context.Context, recordID, reason string) {
	if n == nil || n.Feishu == nil {
		return
	}
	lines := []string{"ID: " + recordID, "error: " + reason}
	if err := n.Feishu.SendRichPost(ctx, "CRM sync failed", lines); err != nil {
		log.Printf("feishu record-failure notice failed: %v", err)
	}
}

func (n *RunNotifier) Completed(ctx context.Context, summary model.RunSummary) {
	if n == nil {
		return
	}
	if n.Feishu != nil {
		paragraphs := [][]PostElement{
			{TextElement(fmt.Sprintf("total: %d", summary.Total))},
			{TextElement(fmt.Sprintf("success: %d", summary.SuccessCount))},
			{TextElement(fmt.Sprintf("failed: %d", summary.FailCount))},
		}
		if n.DetailLogURL != "" {
			paragraphs = append(paragraphs, []PostElement{LinkElement("details", n.DetailLogURL)})
		}
		traces := summary.Traces
		if len(traces) > 5 {
			traces = traces[:5]
		}
		for _, t := range traces {
			paragraphs = append(paragraphs, []PostElement{
				TextElement(fmt.Sprintf("%s | %s", t.RecordID, t.TraceMsg)),
			})
		}
		if n.AtUserID != "" {
			paragraphs = append(paragraphs, []PostElement{AtElement(n.AtUserID)})
		}
		if err := n.Feishu.SendPost(ctx, "CRM sync finished", paragraphs); err != nil {
			log.Printf("feishu completion notice failed: %v", err)
		}
	}
	if n.WeCom != nil {
		content := fmt.Sprintf("**CRM sync finished**\n> total: %d\n> success: %d\n> failed: %d",
			summary.Total, summary.SuccessCount, summary.FailCount)
		if err := n.WeCom.SendMarkdown(ctx, content); err != nil {
			log.Printf("wecom completion notice failed: %v", err)
		}
	}
}
