package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/internal/schema"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/tool"
)

// Options configure a crew.
type Options struct {
	Logger  logging.Logger
	Metrics observability.MetricsRecorder
	Tracer  observability.Tracer
	// Emit receives task output and status events during Kickoff.
	Emit func(core.Event)
	// RunID overrides the generated run identifier, so callers can
	// correlate events with an externally assigned ID.
	RunID string
}

// Crew runs an ordered list of tasks sequentially, threading task outputs
// to dependent tasks.
type Crew struct {
	name  string
	tasks []*Task
	opts  Options
}

// Output is the result of a completed crew run.
type Output struct {
	RunID string       `json:"run_id"`
	Tasks []TaskOutput `json:"tasks"`
	// Raw is the final task's output.
	Raw string `json:"raw"`
}

// New assembles a crew from tasks. The task order is the execution order.
func New(name string, tasks []*Task, optFns ...func(o *Options)) (*Crew, error) {
	if name == "" {
		return nil, fmt.Errorf("crew: name is required")
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("crew: at least one task is required")
	}

	opts := Options{
		Logger:  logging.NoOpLogger{},
		Metrics: observability.NoopMetrics{},
		Tracer:  observability.NoopTracer{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	seen := make(map[*Task]bool, len(tasks))
	for _, t := range tasks {
		if err := t.validate(); err != nil {
			return nil, err
		}
		for _, dep := range t.Context {
			if !seen[dep] {
				return nil, fmt.Errorf(
					"crew: task %q lists context task %q that does not run before it",
					t.Name, dep.Name)
			}
		}
		seen[t] = true
	}

	return &Crew{name: name, tasks: tasks, opts: opts}, nil
}

// Kickoff runs all tasks in order. Inputs resolve template expressions in
// task descriptions. Execution stops at the first failing task.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]any) (out *Output, err error) {
	runID := c.opts.RunID
	if runID == "" {
		runID = core.NewID()
	}
	start := time.Now()
	c.opts.Logger.Info("crew.run.start", "run_id", runID, "crew", c.name, "tasks", len(c.tasks))

	ctx, runSpan := c.opts.Tracer.StartRun(ctx, c.name, runID)
	defer func() {
		runSpan.End(err)
		duration := time.Since(start)
		c.opts.Metrics.RecordRun(ctx, c.name, err == nil, duration)
		if err != nil {
			c.opts.Logger.Error("crew.run.error", "run_id", runID, "crew", c.name,
				"error", err.Error())
			c.emit(core.NewErrorEvent(runID, c.name, err))
			return
		}
		c.opts.Logger.Info("crew.run.complete", "run_id", runID, "crew", c.name,
			"duration_ms", duration.Milliseconds())
	}()

	result := &Output{RunID: runID}
	for _, task := range c.tasks {
		taskOut, taskErr := c.runTask(ctx, runID, task, inputs)
		if taskErr != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, taskErr)
		}
		task.output = &taskOut
		result.Tasks = append(result.Tasks, taskOut)
		result.Raw = taskOut.Raw

		if task.Callback != nil {
			task.Callback(taskOut)
		}
		c.emit(core.NewTaskOutputEvent(runID, task.Name, taskOut.Raw))
	}
	return result, nil
}

func (c *Crew) emit(ev core.Event) {
	if c.opts.Emit != nil {
		c.opts.Emit(ev)
	}
}

// runTask drives one task conversation, including the function-calling
// loop over the task's tools.
func (c *Crew) runTask(ctx context.Context, runID string, task *Task, inputs map[string]any) (TaskOutput, error) {
	c.opts.Logger.Info("crew.task.start", "run_id", runID, "task", task.Name,
		"agent", task.Agent.Role)
	taskCtx, span := c.opts.Tracer.StartStep(ctx, task.Name)
	start := time.Now()

	userPrompt, err := task.userPrompt(inputs)
	if err != nil {
		span.End(err)
		return TaskOutput{}, err
	}

	req := model.Request{
		Instructions: task.Agent.systemPrompt(),
		Contents:     []core.Content{core.NewUserText(userPrompt)},
	}

	tools := task.tools()
	byName := make(map[string]tool.Tool, len(tools))
	for _, tl := range tools {
		byName[tl.Name()] = tl
		req.Tools = append(req.Tools, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        tl.Name(),
				Description: tl.Description(),
				Parameters:  tl.Parameters(),
			},
		})
	}

	if task.OutputSchema != nil {
		req.ResponseFormat = &model.ResponseFormat{
			Name:   task.Name + "_output",
			Schema: schema.Of(task.OutputSchema),
		}
	}

	raw, err := c.converse(taskCtx, runID, task, req, byName)

	duration := time.Since(start)
	c.opts.Metrics.RecordStep(ctx, c.name, task.Name, duration, err)
	span.End(err)
	if err != nil {
		c.opts.Logger.Error("crew.task.error", "run_id", runID, "task", task.Name,
			"error", err.Error())
		return TaskOutput{}, err
	}

	c.opts.Logger.Info("crew.task.complete", "run_id", runID, "task", task.Name,
		"duration_ms", duration.Milliseconds())
	return TaskOutput{Task: task.Name, Agent: task.Agent.Role, Raw: raw}, nil
}

// converse loops model turns until a final text answer or the tool
// iteration budget is exhausted.
func (c *Crew) converse(ctx context.Context, runID string, task *Task, req model.Request, tools map[string]tool.Tool) (string, error) {
	maxIter := task.Agent.maxToolIterations()
	provider := task.Agent.Model.Info().Provider
	for iteration := 0; ; iteration++ {
		callStart := time.Now()
		callCtx, callSpan := c.opts.Tracer.StartModelCall(ctx, provider)
		resp, err := model.Final(task.Agent.Model.Generate(callCtx, req))
		callSpan.End(err)

		totalTokens := 0
		if resp.Usage != nil {
			totalTokens = resp.Usage.TotalTokens
		}
		c.opts.Metrics.RecordModelCall(ctx, provider,
			time.Since(callStart), totalTokens, err)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			return resp.Content.Text(), nil
		}
		if iteration >= maxIter {
			return "", fmt.Errorf("tool iteration budget (%d) exhausted", maxIter)
		}

		req.Contents = append(req.Contents, resp.Content)
		responses := core.Content{Role: "tool"}
		for _, call := range calls {
			responses.Parts = append(responses.Parts, c.callTool(ctx, runID, task, tools, call))
		}
		req.Contents = append(req.Contents, responses)
	}
}

// callTool executes one function call; failures are returned to the model
// rather than aborting the task, matching the catch-and-report behavior
// models expect from tool runtimes.
func (c *Crew) callTool(ctx context.Context, runID string, task *Task, tools map[string]tool.Tool, call core.FunctionCall) core.Part {
	c.opts.Logger.Debug("crew.tool.call", "run_id", runID, "task", task.Name,
		"tool", call.Name, "fc_id", call.ID)

	response := core.FunctionResponse{ID: call.ID, Name: call.Name}

	tl, ok := tools[call.Name]
	if !ok {
		response.Error = fmt.Sprintf("unknown tool %q", call.Name)
		response.Response = "ERROR: " + response.Error
		return core.FunctionResponsePart{FunctionResponse: response}
	}

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			response.Error = fmt.Sprintf("invalid arguments: %v", err)
			response.Response = "ERROR: " + response.Error
			return core.FunctionResponsePart{FunctionResponse: response}
		}
	}

	result, err := tl.Call(ctx, args)
	if err != nil {
		c.opts.Logger.Warn("crew.tool.error", "run_id", runID, "task", task.Name,
			"tool", call.Name, "error", err.Error())
		response.Error = err.Error()
		response.Response = "ERROR: " + err.Error()
		return core.FunctionResponsePart{FunctionResponse: response}
	}

	response.Response = result
	return core.FunctionResponsePart{FunctionResponse: response}
}
