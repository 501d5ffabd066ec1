package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-2.0-flash-001"
	// maxToolRounds bounds how many tool calls one question may chain.
	maxToolRounds = 4
)

var ErrNoAPIKey = errors.New("assistant disabled: GEMINI_API_KEY is not set")

// Agent answers operator questions about stock, the open sale and past
// sales. It never changes anything.
type Agent struct {
	apiKey string
	model  string
	tools  *Tools
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewAgent(apiKey string, tools *Tools, log logrus.FieldLogger) *Agent {
	return &Agent{
		apiKey: apiKey,
		model:  defaultModel,
		tools:  tools,
		now:    time.Now,
		log:    log.WithField("module", "ai"),
	}
}

func (a *Agent) Enabled() bool { return a.apiKey != "" }

func (a *Agent) systemPrompt() string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a point-of-sale terminal.

	RULES:
	1. STOCK: If the operator asks whether a product is available, or about its PRICE or TAX:
	   - Call 'check_stock' with the product name, SKU or barcode.
	   - Answer from the returned JSON. "unknown" stock means the inventory has not loaded yet.

	2. CART: If the operator asks about the current sale (items, discount, totals), call 'cart_summary'.

	3. SALES: If the operator asks for sales/revenue, use 'get_sales_report'.

	4. You are read-only. If asked to change prices, stock or the cart, explain that it must be done from the POS screen.

	Amounts are in Nicaraguan cordobas (C$).`, a.now().Format("2006-01-02"))
}

// Ask runs one question through Gemini, resolving tool calls locally.
func (a *Agent) Ask(ctx context.Context, userMessage string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(a.systemPrompt())}}
	model.Tools = []*genai.Tool{{FunctionDeclarations: Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.WithField("tool", call.Name).Debug("assistant tool call")
			replies = append(replies, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.tools.Execute(ctx, call.Name, call.Args),
			})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not come up with an answer."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I could not come up with an answer."
}
