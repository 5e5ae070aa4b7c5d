package mocks

//go:generate mockery --name HistoryStore --srcpkg github.com/aevon-lab/review-history/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
