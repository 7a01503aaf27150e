package collect

// State 是单个工具调用记录的生命周期状态。
type State int

const (
	Open State = iota
	Finalized
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ArgumentsPolicy 决定终止事件携带的 arguments 与已累积分片之间谁更权威。
type ArgumentsPolicy int

const (
	// PreferTerminal：终止事件显式给出的 arguments 覆盖累积的 delta（默认）。
	PreferTerminal ArgumentsPolicy = iota
	// PreferAccumulated：只要累积过 delta 就保留累积值，终止值仅作为兜底。
	PreferAccumulated
)

// Record 是重建后的工具调用，按值返回给调用方。
type Record struct {
	ItemID    string `json:"item_id"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	State     State  `json:"state"`
}

// Entry 是 ToolCalls 中一条记录的可变句柄。Finalized 之后所有写操作都是 no-op。
type Entry struct {
	rec Record
	// modern 表示收到过 output_tool_call.* 事件。
	modern bool
	// legacy 收集 function_call_arguments.delta，不进入主缓冲区。
	legacy string
	// fallback 是旧版 done 事件给出的 arguments，仅在新版 end 没有给出任何值时使用。
	fallback string
}

func (e *Entry) Snapshot() Record {
	return e.rec
}

func (e *Entry) SetName(name string) {
	if e.rec.State == Finalized || name == "" {
		return
	}
	e.rec.Name = name
}

// SetCallID 只在 call_id 仍为空时写入，返回是否发生了写入。
func (e *Entry) SetCallID(callID string) bool {
	if callID == "" || e.rec.CallID != "" {
		return false
	}
	e.rec.CallID = callID
	return true
}

// AppendArguments 在 Open 状态下追加一个分片。
func (e *Entry) AppendArguments(fragment string) bool {
	if e.rec.State == Finalized {
		return false
	}
	e.rec.Arguments += fragment
	return true
}

// ToolCalls 以 item_id 为键保存一条流内的所有工具调用，只提供 get-or-create 与 finalize 两种变更。
type ToolCalls struct {
	policy  ArgumentsPolicy
	order   []string
	entries map[string]*Entry
}

func NewToolCalls(policy ArgumentsPolicy) *ToolCalls {
	return &ToolCalls{
		policy:  policy,
		entries: make(map[string]*Entry),
	}
}

// GetOrCreate 返回 itemID 对应的记录，首次引用时创建；已有记录的 ItemID 永不改变。
func (t *ToolCalls) GetOrCreate(itemID string) *Entry {
	if e, ok := t.entries[itemID]; ok {
		return e
	}
	e := &Entry{rec: Record{ItemID: itemID, State: Open}}
	t.entries[itemID] = e
	t.order = append(t.order, itemID)
	return e
}

// Lookup 只读查找，不会创建记录。
func (t *ToolCalls) Lookup(itemID string) (*Entry, bool) {
	e, ok := t.entries[itemID]
	return e, ok
}

// Finalize 把记录置为 Finalized。explicit 表示终止事件携带了 arguments（哪怕为空串）。
// 记录已经 Finalized 时返回 false 且不做任何修改。
func (t *ToolCalls) Finalize(itemID string, terminal string, explicit bool) bool {
	e := t.GetOrCreate(itemID)
	if e.rec.State == Finalized {
		return false
	}
	args := resolveArguments(t.policy, e.rec.Arguments, terminal, explicit)
	if !explicit && args == "" {
		args = e.fallback
	}
	e.rec.Arguments = args
	e.rec.State = Finalized
	return true
}

// resolveArguments 是"终止值覆盖累积分片"这一策略的唯一决策点。
func resolveArguments(policy ArgumentsPolicy, accumulated, terminal string, explicit bool) string {
	if !explicit {
		return accumulated
	}
	switch policy {
	case PreferAccumulated:
		if accumulated != "" {
			return accumulated
		}
		return terminal
	default:
		return terminal
	}
}

// Records 按首次出现顺序返回所有记录的副本。
func (t *ToolCalls) Records() []Record {
	out := make([]Record, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id].rec)
	}
	return out
}

// Finalized 只返回已 Finalized 的记录；Open 记录的 arguments 不可信。
func (t *ToolCalls) Finalized() []Record {
	return finalizedOnly(t.Records())
}

func (t *ToolCalls) Len() int {
	return len(t.order)
}

func finalizedOnly(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if rec.State == Finalized {
			out = append(out, rec)
		}
	}
	return out
}
