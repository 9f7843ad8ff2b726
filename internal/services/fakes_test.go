package services

import (
	"context"

	"billed/internal/attachments"
	"billed/internal/core"
	"billed/internal/store"
)

type fakeBills struct {
	listFn   func(ctx context.Context) ([]core.Bill, error)
	createFn func(ctx context.Context, b core.Bill) (core.Bill, error)
	updateFn func(ctx context.Context, b core.Bill) (core.Bill, error)

	created []core.Bill
	updated []core.Bill
	lists   int
}

func (f *fakeBills) Bills() store.BillStore { return f }

func (f *fakeBills) List(ctx context.Context) ([]core.Bill, error) {
	f.lists++
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeBills) Create(ctx context.Context, b core.Bill) (core.Bill, error) {
	f.created = append(f.created, b)
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	b.ID = "bill123"
	return b, nil
}

func (f *fakeBills) Update(ctx context.Context, b core.Bill) (core.Bill, error) {
	f.updated = append(f.updated, b)
	if f.updateFn != nil {
		return f.updateFn(ctx, b)
	}
	return b, nil
}

type fakeUploader struct {
	err     error
	uploads []attachments.File
}

func (f *fakeUploader) Upload(_ context.Context, _ string, file attachments.File) (attachments.Attachment, error) {
	f.uploads = append(f.uploads, file)
	if f.err != nil {
		return attachments.Attachment{}, f.err
	}
	return attachments.Attachment{URL: "http://example.com/" + file.Name, Name: file.Name}, nil
}

type fakeNotifier struct {
	err   error
	bills []core.Bill
}

func (f *fakeNotifier) BillSubmitted(_ context.Context, b core.Bill) error {
	f.bills = append(f.bills, b)
	return f.err
}

type navRecorder struct {
	routes []string
}

func (n *navRecorder) navigate(route string) { n.routes = append(n.routes, route) }
