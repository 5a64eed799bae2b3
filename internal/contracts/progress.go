package contracts

// ProgressStatus is the coarse run status
type ProgressStatus string

const (
	StatusIdle     ProgressStatus = "idle"
	StatusRunning  ProgressStatus = "running"
	StatusComplete ProgressStatus = "complete"
	StatusError    ProgressStatus = "error"
)

// ProgressStage 정의 (SSOT)
//
// 파이프라인 흐름:
//
//	idle → fetching_universe → pre_screening → fetching_details → filtering → complete
//	                  ↘ error (유니버스 실패만)
type ProgressStage string

const (
	// StageIdle 실행 전 (빈 문자열)
	StageIdle ProgressStage = ""

	// StageFetchingUniverse 유니버스 수집
	// 위치: internal/universe/
	StageFetchingUniverse ProgressStage = "fetching_universe"

	// StagePreScreening 시총/거래량 사전 필터
	// 위치: internal/prescreen/
	StagePreScreening ProgressStage = "pre_screening"

	// StageFetchingDetails 후보 종목 상세 데이터 수집
	// 위치: internal/external/yahoo/
	StageFetchingDetails ProgressStage = "fetching_details"

	// StageFiltering 12개 규칙 평가 + 점수
	// 위치: internal/selection/
	StageFiltering ProgressStage = "filtering"

	StageComplete ProgressStage = "complete"
	StageError    ProgressStage = "error"
)

// ProgressState is the status record read by progress streams.
// It is always replaced as a whole, never merged.
type ProgressState struct {
	Status      ProgressStatus `json:"status"`
	Stage       ProgressStage  `json:"stage"`
	Current     int            `json:"current"`
	Total       int            `json:"total"`
	Message     string         `json:"message"`
	StocksFound int            `json:"stocks_found"`
}

// IdleProgress is the state at process start
func IdleProgress() ProgressState {
	return ProgressState{Status: StatusIdle, Stage: StageIdle}
}

// IsTerminal reports whether the run has finished (complete or error)
func (p ProgressState) IsTerminal() bool {
	return p.Status == StatusComplete || p.Status == StatusError
}
