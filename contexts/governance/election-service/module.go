package electionservice

import (
	"log/slog"

	httpadapter "nexus/contexts/governance/election-service/adapters/http"
	"nexus/contexts/governance/election-service/adapters/memory"
	"nexus/contexts/governance/election-service/application/commands"
	"nexus/contexts/governance/election-service/application/queries"
	"nexus/contexts/governance/election-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Elections ports.ElectionRepository
	Ledger    ports.BallotLedger
	Members   ports.MemberDirectory
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ballotUseCase := commands.BallotUseCase{
		Elections: deps.Elections,
		Ledger:    deps.Ledger,
		Members:   deps.Members,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	adminUseCase := commands.AdminUseCase{
		Elections: deps.Elections,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	queryUseCase := queries.ElectionQueryUseCase{
		Elections: deps.Elections,
		Members:   deps.Members,
		Clock:     deps.Clock,
	}
	resultsUseCase := queries.ResultsUseCase{
		Elections: deps.Elections,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ballots: ballotUseCase,
			Admin:   adminUseCase,
			Queries: queryUseCase,
			Results: resultsUseCase,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections: store,
		Ledger:    store,
		Members:   store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
