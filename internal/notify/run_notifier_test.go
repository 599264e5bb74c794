package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

func TestRunNotifierNilIsSafe(t *testing.T) {
	var n *RunNotifier
	ctx := context.Background()
	n.AuthFailed(ctx, "x")
	n.Progress(ctx, 1, 2, 1, 0)
	n.RecordFailed(ctx, "1", "x")
	n.Completed(ctx, model.RunSummary{})
}

func TestCompletedCardTrimsTraces(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	n := &RunNotifier{
		Feishu:       NewFeishuClient(srv.URL, "", ""),
		DetailLogURL: "http://host.test/api/v1/sync/last",
		AtUserID:     "ou_9",
	}

	summary := model.RunSummary{Total: 8, SuccessCount: 8}
	for i := 0; i < 8; i++ {
		summary.Traces = append(summary.Traces, model.SuccessTrace{
			RecordID: fmt.Sprintf("%d", i+1),
			TraceMsg: "ok",
		})
	}
	n.Completed(context.Background(), summary)

	zh := got["content"].(map[string]interface{})["post"].(map[string]interface{})["zh_cn"].(map[string]interface{})
	content := zh["content"].([]interface{})
	// 3 count rows + details link + 5 traces + @user.
	require.Len(t, content, 10)
	link := content[3].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "a", link["tag"])
	require.Equal(t, "http://host.test/api/v1/sync/last", link["href"])
	last := content[9].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "at", last["tag"])
	require.Equal(t, "ou_9", last["user_id"])
}
