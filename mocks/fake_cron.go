//+build !release

package mocks

import "sync"

// IFakeCron adds manual triggering to a fake cron provider.
type IFakeCron interface {
	AddFunc(spec string, cmd func()) (int, error)
	RemoveFunc(id int)
	Fire()
	Specs() []string
}

type fakeCron struct {
	sync.Mutex
	next  int
	jobs  map[int]func()
	specs map[int]string
}

func (f *fakeCron) AddFunc(spec string, cmd func()) (int, error) {
	f.Lock()
	defer f.Unlock()

	f.next++
	f.jobs[f.next] = cmd
	f.specs[f.next] = spec
	return f.next, nil
}

func (f *fakeCron) RemoveFunc(id int) {
	f.Lock()
	defer f.Unlock()

	delete(f.jobs, id)
	delete(f.specs, id)
}

// Fire invokes all scheduled jobs synchronously.
func (f *fakeCron) Fire() {
	f.Lock()
	jobs := make([]func(), 0, len(f.jobs))
	for _, v := range f.jobs {
		jobs = append(jobs, v)
	}
	f.Unlock()

	for _, v := range jobs {
		v()
	}
}

// Specs returns specs of active jobs.
func (f *fakeCron) Specs() []string {
	f.Lock()
	defer f.Unlock()

	result := make([]string, 0, len(f.specs))
	for _, v := range f.specs {
		result = append(result, v)
	}

	return result
}

// FakeNewCron creates a fake cron provider.
func FakeNewCron() IFakeCron {
	return &fakeCron{
		jobs:  make(map[int]func()),
		specs: make(map[int]string),
	}
}
