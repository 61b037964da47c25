package session_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"receipt-print/internal/session"
	"receipt-print/mocks"
)

// --- test helpers ---

type fakeSub struct {
	ch        chan session.Event
	kinds     []session.EventKind
	cancelled bool
}

// fakeSource is an EventSource that records subscriptions.
type fakeSource struct {
	mu   sync.Mutex
	subs []*fakeSub
}

func (f *fakeSource) Subscribe(kinds ...session.EventKind) (<-chan session.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &fakeSub{ch: make(chan session.Event, 8), kinds: kinds}
	f.subs = append(f.subs, s)
	return s.ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		s.cancelled = true
	}
}

func (f *fakeSource) emit(ev session.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if !s.cancelled {
			s.ch <- ev
		}
	}
}

func (f *fakeSource) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if !s.cancelled {
			n++
		}
	}
	return n
}

// recorder is a Notifier that keeps every message.
type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

type fixture struct {
	ctrl     *gomock.Controller
	binder   *mocks.Binder
	endpoint *mocks.Endpoint
	radio    *mocks.Radio
	source   *fakeSource
	notes    *recorder
	mgr      *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:     ctrl,
		binder:   mocks.NewBinder(ctrl),
		endpoint: mocks.NewEndpoint(ctrl),
		radio:    mocks.NewRadio(ctrl),
		source:   &fakeSource{},
		notes:    &recorder{},
	}
	f.mgr = session.New(f.binder, f.source, session.Options{
		Radio:    f.radio,
		Notifier: f.notes,
	})
	return f
}

// bound returns a fixture whose manager is already bound.
func bound(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.binder.EXPECT().Bind().Return(f.endpoint, nil)
	require.NoError(t, f.mgr.Bind())
	t.Cleanup(func() {
		f.binder.EXPECT().Unbind(f.endpoint).Return(nil).AnyTimes()
		f.mgr.Unbind()
	})
	return f
}

var printer = session.NewBluetoothDescriptor("receipt", "00:11:22:33:44:55", 0)

// --- binding ---

func TestBindSubscribesToBothEventKinds(t *testing.T) {
	f := bound(t)

	require.Len(t, f.source.subs, 1)
	assert.ElementsMatch(t,
		[]session.EventKind{session.EventDeviceStatus, session.EventCommandResponse},
		f.source.subs[0].kinds)
	assert.True(t, f.mgr.Bound())
}

func TestBindTwiceOnlyResubscribes(t *testing.T) {
	f := bound(t)

	require.NoError(t, f.mgr.Bind())

	assert.Len(t, f.source.subs, 2)
	assert.Equal(t, 1, f.source.active())
}

func TestBindFailureLeavesManagerUnbound(t *testing.T) {
	f := newFixture(t)
	f.binder.EXPECT().Bind().Return(nil, errors.New("service missing"))

	err := f.mgr.Bind()

	require.Error(t, err)
	assert.False(t, f.mgr.Bound())
	assert.Equal(t, 0, f.source.active())
}

func TestUnbindWhenNotBoundIsSafe(t *testing.T) {
	f := newFixture(t)

	f.mgr.Unbind()
	f.mgr.Unbind()

	assert.False(t, f.mgr.IsConnected())
}

func TestUnbindAlwaysEndsDisconnected(t *testing.T) {
	f := newFixture(t)
	f.binder.EXPECT().Bind().Return(f.endpoint, nil)
	require.NoError(t, f.mgr.Bind())
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connected, nil)
	require.True(t, f.mgr.IsConnected())

	f.binder.EXPECT().Unbind(f.endpoint).Return(errors.New("already gone"))
	f.mgr.Unbind()

	assert.False(t, f.mgr.IsConnected())
	assert.Equal(t, session.Disconnected, f.mgr.State())
	assert.Equal(t, 0, f.source.active())
}

// --- connection state ---

func TestIsConnectedFalseWhenUnbound(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.mgr.IsConnected())
}

func TestIsConnectedFalseWhenEndpointFails(t *testing.T) {
	f := bound(t)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connected, errors.New("dead object"))

	assert.False(t, f.mgr.IsConnected())
}

func TestIsConnectedFalseWhileConnecting(t *testing.T) {
	f := bound(t)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connecting, nil)

	assert.False(t, f.mgr.IsConnected())
}

// --- connect ---

func TestConnectNilDescriptorMakesNoRemoteCall(t *testing.T) {
	f := bound(t)

	err := f.mgr.Connect(nil)

	require.ErrorIs(t, err, session.ErrNoDescriptor)
	assert.Equal(t, []string{"invalid printer data"}, f.notes.messages())
}

func TestConnectWithTransportDisabled(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(false)

	err := f.mgr.Connect(printer)

	require.ErrorIs(t, err, session.ErrTransportDisabled)
	assert.Equal(t, []string{"please enable bluetooth first"}, f.notes.messages())

	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil)
	assert.Equal(t, session.Disconnected, f.mgr.State())
}

func TestConnectSerialSkipsRadioCheck(t *testing.T) {
	f := bound(t)
	port := &session.Descriptor{Address: "/dev/ttyUSB0", ID: 1, Transport: session.TransportSerial}
	gomock.InOrder(
		f.endpoint.EXPECT().ConnectionStatus(1).Return(session.Disconnected, nil),
		f.endpoint.EXPECT().OpenPort(1, session.TransportSerial, "/dev/ttyUSB0", 0).Return(session.ResultSuccess, nil),
	)

	require.NoError(t, f.mgr.Connect(port))
}

func TestConnectWhenAlreadyConnectedIsNoop(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(true)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connected, nil)

	require.NoError(t, f.mgr.Connect(printer))
	assert.Empty(t, f.notes.messages())
}

func TestConnectSuccessThenIsConnected(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(true)
	gomock.InOrder(
		f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil),
		f.endpoint.EXPECT().OpenPort(0, session.TransportBluetooth, "00:11:22:33:44:55", 0).Return(session.ResultSuccess, nil),
		f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connected, nil),
	)

	require.NoError(t, f.mgr.Connect(printer))
	assert.True(t, f.mgr.IsConnected())
}

func TestConnectAdoptsAlreadyConnectedSlot(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(true)
	slot4 := session.NewBluetoothDescriptor("kitchen", "AA:BB:CC:DD:EE:FF", 4)
	gomock.InOrder(
		f.endpoint.EXPECT().ConnectionStatus(4).Return(session.Connected, nil),
		f.endpoint.EXPECT().SendCommand(4, gomock.Any()).Return(session.ResultSuccess, nil),
	)

	require.NoError(t, f.mgr.Connect(slot4))
	assert.True(t, f.mgr.Print([]byte("TEXT\n")))
}

func TestConnectNonSuccessCode(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(true)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil)
	f.endpoint.EXPECT().OpenPort(0, session.TransportBluetooth, printer.Address, 0).Return(session.ResultInvalidBluetoothAddress, nil)

	err := f.mgr.Connect(printer)

	var re *session.ResultError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, session.ResultInvalidBluetoothAddress, re.Code)
	assert.True(t, session.IsResultCode(err, session.ResultInvalidBluetoothAddress))
	assert.Equal(t, []string{"invalid bluetooth address"}, f.notes.messages())
}

func TestConnectTransportFailure(t *testing.T) {
	f := bound(t)
	f.radio.EXPECT().Enabled().Return(true)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil)
	f.endpoint.EXPECT().OpenPort(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(session.ResultSuccess, errors.New("service died"))

	err := f.mgr.Connect(printer)

	require.ErrorIs(t, err, session.ErrConnectFailed)
	assert.Equal(t, []string{"connect failed"}, f.notes.messages())
}

func TestConnectUnbound(t *testing.T) {
	f := newFixture(t)
	f.radio.EXPECT().Enabled().Return(true)

	err := f.mgr.Connect(printer)

	require.ErrorIs(t, err, session.ErrConnectFailed)
	require.ErrorIs(t, err, session.ErrNotBound)
}

// --- disconnect ---

func TestDisconnectTwiceNeverFails(t *testing.T) {
	f := bound(t)
	gomock.InOrder(
		f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Connected, nil),
		f.endpoint.EXPECT().ClosePort(0).Return(errors.New("close failed")),
		f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil),
	)

	assert.NotPanics(t, func() {
		f.mgr.Disconnect()
		f.mgr.Disconnect()
	})
}

func TestDisconnectWhenNotConnectedMakesNoCloseCall(t *testing.T) {
	f := bound(t)
	f.endpoint.EXPECT().ConnectionStatus(0).Return(session.Disconnected, nil)

	f.mgr.Disconnect()
}

// --- status ---

func TestQueryStatusUsesTimeoutAndTag(t *testing.T) {
	ctrl := gomock.NewController(t)
	binder, endpoint := mocks.NewBinder(ctrl), mocks.NewEndpoint(ctrl)
	mgr := session.New(binder, &fakeSource{}, session.Options{
		PrinterID:     3,
		StatusTimeout: 2 * time.Second,
		StatusTag:     7,
	})
	binder.EXPECT().Bind().Return(endpoint, nil)
	require.NoError(t, mgr.Bind())

	endpoint.EXPECT().QueryStatus(3, 2*time.Second, 7).Return(errors.New("busy"))
	mgr.QueryStatus()

	endpoint.EXPECT().QueryStatus(3, 2*time.Second, 7).Return(nil)
	mgr.QueryStatus()
}

func TestQueryStatusDefaults(t *testing.T) {
	f := bound(t)
	f.endpoint.EXPECT().QueryStatus(0, session.DefaultStatusTimeout, session.DefaultStatusTag).Return(nil)

	f.mgr.QueryStatus()
}

func TestQueryStatusUnboundIsIgnored(t *testing.T) {
	f := newFixture(t)

	assert.NotPanics(t, f.mgr.QueryStatus)
}

// --- print ---

func TestPrintReturnValue(t *testing.T) {
	tests := []struct {
		name  string
		code  session.ResultCode
		err   error
		want  bool
		notes []string
	}{
		{name: "success", code: session.ResultSuccess, want: true, notes: []string{"print sent"}},
		{name: "rejected", code: session.ResultPortNotOpen, want: true, notes: []string{"port is not open"}},
		{name: "transport failure", err: errors.New("dead object"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := bound(t)
			f.endpoint.EXPECT().SendCommand(0, []byte("TEXT\n")).Return(tt.code, tt.err)

			assert.Equal(t, tt.want, f.mgr.Print([]byte("TEXT\n")))
			assert.Equal(t, tt.notes, f.notes.messages())
		})
	}
}

func TestPrintUnknownCodeStillReturnsTrue(t *testing.T) {
	f := bound(t)
	f.endpoint.EXPECT().SendCommand(0, gomock.Any()).Return(session.ResultCode(99), nil)

	assert.True(t, f.mgr.Print([]byte("TEXT\n")))
	assert.Equal(t, []string{"unknown error (code 99)"}, f.notes.messages())
}

func TestPrintUnbound(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.mgr.Print([]byte("TEXT\n")))
}

func TestPrintUsesConnectedPrinterID(t *testing.T) {
	f := bound(t)
	slot := session.NewBluetoothDescriptor("", "00:11:22:33:44:55", 4)
	f.radio.EXPECT().Enabled().Return(true)
	f.endpoint.EXPECT().ConnectionStatus(4).Return(session.Disconnected, nil)
	f.endpoint.EXPECT().OpenPort(4, session.TransportBluetooth, slot.Address, 0).Return(session.ResultSuccess, nil)
	require.NoError(t, f.mgr.Connect(slot))

	f.endpoint.EXPECT().SendCommand(4, gomock.Any()).Return(session.ResultSuccess, nil)
	assert.True(t, f.mgr.Print([]byte("x")))
}

// --- listener ---

func TestListenerReceivesEvents(t *testing.T) {
	f := bound(t)
	got := make(chan session.Event, 4)
	f.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) { got <- ev }))

	want := session.Event{Kind: session.EventDeviceStatus, Tag: session.DefaultStatusTag, Status: session.StatusPaperOut}
	f.source.emit(want)

	select {
	case ev := <-got:
		assert.Equal(t, want, ev)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestListenerReplacedWholesale(t *testing.T) {
	f := bound(t)
	first := make(chan session.Event, 4)
	second := make(chan session.Event, 4)
	f.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) { first <- ev }))
	f.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) { second <- ev }))

	f.source.emit(session.Event{Kind: session.EventCommandResponse})

	require.Eventually(t, func() bool { return len(second) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, first)
}

func TestNilListenerDisablesDelivery(t *testing.T) {
	f := bound(t)
	got := make(chan session.Event, 4)
	f.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) { got <- ev }))
	f.mgr.SetResultListener(nil)

	f.source.emit(session.Event{Kind: session.EventCommandResponse})

	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestEventsAfterUnbindAreDropped(t *testing.T) {
	f := newFixture(t)
	f.binder.EXPECT().Bind().Return(f.endpoint, nil)
	require.NoError(t, f.mgr.Bind())
	got := make(chan session.Event, 4)
	f.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) { got <- ev }))

	f.binder.EXPECT().Unbind(f.endpoint).Return(nil)
	f.mgr.Unbind()

	// deliver straight into the stale channel
	f.source.subs[0].ch <- session.Event{Kind: session.EventDeviceStatus}

	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 5*time.Millisecond)
}
