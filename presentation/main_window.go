package presentation

import (
	"errors"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	appsession "sgdet-annotate/application/session"
	"sgdet-annotate/core/event"
	"sgdet-annotate/core/eventbus"
	"sgdet-annotate/domain/annotation"
	"sgdet-annotate/domain/dictionary"
	"sgdet-annotate/infrastructure/imagefile"
)

// interactionMode tracks which multi-step annotation flow is active.
// Exactly one flow runs at a time; every flow starts and ends on the
// UI thread.
type interactionMode int

const (
	modeIdle interactionMode = iota
	// modeAddAttribute waits for an attribute pick in the attribute list.
	modeAddAttribute
	// modePickPredicate waits for a predicate pick in the predicate list.
	modePickPredicate
	// modePickTarget waits for a target box tap on the canvas.
	modePickTarget
	// modeChangeLabel waits for a new label pick in the label list.
	modeChangeLabel
)

// MainWindow is the main application window: the annotation canvas on
// the left, the three dictionary lists on the right, and the labeled,
// attribute, and relationship views below.
type MainWindow struct {
	window  fyne.Window
	session *appsession.Session
	bus     eventbus.EventBus
	logger  *slog.Logger

	canvas *AnnotationCanvas

	labelList     *TokenList
	attributeList *TokenList
	predicateList *TokenList

	labeledView      *TokenList
	attributeView    *TokenList
	relationshipView *TokenList

	openBtn   *widget.Button
	saveBtn   *widget.Button
	createBtn *widget.Button

	// Interaction state. The canvas pending box is the drawn but not
	// yet labeled box; at most one exists. pendingSub is the per-box
	// bus subscription that ends the pending state.
	selectedBox      annotation.BoxID
	pendingBox       annotation.BoxID
	pendingSub       string
	createActive     bool
	mode             interactionMode
	pendingPredicate int

	// View caches mapping list rows back to handles.
	boxEntries          []appsession.BoxEntry
	attributeEntries    []appsession.AttributeEntry
	relationshipEntries []appsession.RelationshipEntry
}

// MainWindowConfig holds configuration for MainWindow.
type MainWindowConfig struct {
	App      fyne.App
	Session  *appsession.Session
	EventBus eventbus.EventBus
	Logger   *slog.Logger
	Size     fyne.Size
}

// NewMainWindow creates the main window and wires it to the session.
func NewMainWindow(cfg *MainWindowConfig) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Size.Width <= 0 || cfg.Size.Height <= 0 {
		cfg.Size = fyne.NewSize(1280, 800)
	}

	w := &MainWindow{
		window:  cfg.App.NewWindow("SGDET Annotate"),
		session: cfg.Session,
		bus:     cfg.EventBus,
		logger:  cfg.Logger,
	}

	w.init()
	w.subscribe(cfg.EventBus)
	w.refreshDictionaries()

	w.window.Resize(cfg.Size)
	w.window.SetCloseIntercept(w.handleCloseRequest)
	w.window.SetOnClosed(func() {
		cfg.App.Quit()
	})
	return w
}

// Show displays the main window.
func (w *MainWindow) Show() {
	w.window.Show()
}

func (w *MainWindow) init() {
	w.canvas = NewAnnotationCanvas()
	w.canvas.SetOnBoxDrawn(w.handleBoxDrawn)
	w.canvas.SetOnBoxResized(w.handleBoxResized)
	w.canvas.SetOnTapped(w.handleCanvasTapped)
	w.canvas.SetOnRightTapped(w.handleCanvasRightTapped)

	w.labelList = NewTokenList(w.handleLabelPicked)
	w.attributeList = NewTokenList(w.handleAttributePicked)
	w.predicateList = NewTokenList(w.handlePredicatePicked)
	w.labeledView = NewTokenList(w.handleLabeledRowSelected)
	w.attributeView = NewTokenList(nil)
	w.relationshipView = NewTokenList(nil)

	w.openBtn = widget.NewButtonWithIcon("Open Image", theme.FolderOpenIcon(), w.handleOpenImage)
	w.saveBtn = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), w.handleSave)
	w.createBtn = widget.NewButtonWithIcon("Create BBox", theme.ContentAddIcon(), w.handleToggleCreate)

	toolbar := container.NewHBox(w.openBtn, w.createBtn, w.saveBtn)

	dictionaries := container.NewGridWithRows(3,
		importSection("Import Label List", w.labelList, func() {
			w.handleImport(dictionary.KindLabel, "Import Label List")
		}),
		importSection("Import Attribute List", w.attributeList, func() {
			w.handleImport(dictionary.KindAttribute, "Import Attribute List")
		}),
		importSection("Import Relationship List", w.predicateList, func() {
			w.handleImport(dictionary.KindPredicate, "Import Relationship List")
		}),
	)

	views := container.NewGridWithColumns(3,
		viewSection("Labeled BBoxes", w.labeledView, nil),
		viewSection("Attributes", w.attributeView,
			widget.NewButton("Remove Attribute", w.handleRemoveAttribute)),
		viewSection("Relationships", w.relationshipView,
			widget.NewButton("Remove Relationship", w.handleRemoveRelationship)),
	)

	canvasAndViews := container.NewVSplit(w.canvas, views)
	canvasAndViews.SetOffset(0.72)

	split := container.NewHSplit(canvasAndViews, dictionaries)
	split.SetOffset(0.74)

	w.window.SetContent(container.NewBorder(toolbar, nil, nil, nil, split))
}

func importSection(buttonText string, list *TokenList, onImport func()) fyne.CanvasObject {
	btn := widget.NewButtonWithIcon(buttonText, theme.UploadIcon(), onImport)
	return container.NewBorder(btn, nil, nil, nil, list)
}

func viewSection(title string, list *TokenList, action *widget.Button) fyne.CanvasObject {
	var bottom fyne.CanvasObject
	if action != nil {
		bottom = action
	}
	return container.NewBorder(widget.NewLabel(title), bottom, nil, nil, list)
}

// subscribe refreshes the views from the synchronous event bus. Events
// are published by session operations running on the UI thread, so the
// handlers are already on the UI thread.
func (w *MainWindow) subscribe(bus eventbus.EventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(func(e event.Event) {
		switch ev := e.(type) {
		case *event.ImageOpened:
			w.logger.Info("image opened in view", "path", ev.Path)
			w.resetInteraction()
			w.canvas.SetImage(w.session.Image(), ev.Width, ev.Height)
			w.refreshAnnotations()
		case *event.DictionaryImported:
			w.refreshDictionaries()
		case *event.AnnotationsSaved:
			w.logger.Info("annotations saved", "record", ev.RecordPath, "columnar", ev.ColumnarPath)
		default:
			w.refreshAnnotations()
		}
	})
}

// resetInteraction clears every in-flight flow and selection.
func (w *MainWindow) resetInteraction() {
	w.selectedBox = 0
	w.clearPendingBox()
	w.pendingPredicate = 0
	w.mode = modeIdle
	w.setCreateActive(false)
}

// trackPendingBox follows a freshly drawn box through the bus: labeling
// or deleting that box ends the pending state, wherever the mutation
// came from.
func (w *MainWindow) trackPendingBox(id annotation.BoxID) {
	w.pendingBox = id
	if w.bus == nil {
		return
	}
	w.pendingSub = w.bus.SubscribeBox(int(id), func(e event.Event) {
		switch e.(type) {
		case *event.BoxLabeled, *event.BoxDeleted:
			w.clearPendingBox()
			w.refreshAnnotations()
		}
	})
}

func (w *MainWindow) clearPendingBox() {
	if w.pendingSub != "" && w.bus != nil {
		w.bus.Unsubscribe(w.pendingSub)
	}
	w.pendingSub = ""
	w.pendingBox = 0
}

func (w *MainWindow) setCreateActive(active bool) {
	w.createActive = active
	w.canvas.SetDrawMode(active)
	if active {
		w.createBtn.Importance = widget.HighImportance
	} else {
		w.createBtn.Importance = widget.MediumImportance
	}
	w.createBtn.Refresh()
}

// refreshDictionaries reloads the three dictionary lists.
func (w *MainWindow) refreshDictionaries() {
	if d := w.session.Labels(); d != nil {
		w.labelList.SetItems(d.Tokens())
	} else {
		w.labelList.SetItems(nil)
	}
	if d := w.session.Attributes(); d != nil {
		w.attributeList.SetItems(d.Tokens())
	} else {
		w.attributeList.SetItems(nil)
	}
	if d := w.session.Predicates(); d != nil {
		w.predicateList.SetItems(d.Tokens())
	} else {
		w.predicateList.SetItems(nil)
	}
}

// refreshAnnotations rebuilds the canvas overlays and the three
// annotation views from the session.
func (w *MainWindow) refreshAnnotations() {
	w.boxEntries = w.session.BoxEntries()

	boxes := make([]BoxDisplay, 0, len(w.boxEntries)+1)
	rows := make([]string, 0, len(w.boxEntries))
	for _, entry := range w.boxEntries {
		boxes = append(boxes, BoxDisplay{
			ID:       entry.ID,
			Label:    entry.Display,
			Geometry: entry.Geometry,
			Selected: entry.ID == w.selectedBox,
		})
		rows = append(rows, entry.Display)
	}
	if w.pendingBox != 0 {
		if box, err := w.session.Box(w.pendingBox); err == nil {
			boxes = append(boxes, BoxDisplay{
				ID:       w.pendingBox,
				Geometry: box.Geometry,
				Pending:  true,
			})
		} else {
			w.clearPendingBox()
		}
	}
	w.canvas.SetBoxes(boxes)

	w.labeledView.SetItems(rows)
	if w.selectedBox != 0 {
		for _, entry := range w.boxEntries {
			if entry.ID == w.selectedBox {
				w.labeledView.SelectItem(entry.Display)
				break
			}
		}
	}

	w.attributeEntries = nil
	if w.selectedBox != 0 {
		if entries, err := w.session.AttributeEntries(w.selectedBox); err == nil {
			w.attributeEntries = entries
		}
	}
	attrRows := make([]string, 0, len(w.attributeEntries))
	for _, entry := range w.attributeEntries {
		attrRows = append(attrRows, entry.Token)
	}
	w.attributeView.SetItems(attrRows)

	w.relationshipEntries = w.session.RelationshipEntries(w.selectedBox)
	relRows := make([]string, 0, len(w.relationshipEntries))
	for _, entry := range w.relationshipEntries {
		relRows = append(relRows, entry.Display)
	}
	w.relationshipView.SetItems(relRows)
}

// --- toolbar handlers ---

func (w *MainWindow) handleOpenImage() {
	fd := dialog.NewFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		if uri == nil {
			return
		}
		path := uri.URI().Path()
		uri.Close()
		if _, err := w.session.OpenImage(path); err != nil {
			dialog.ShowError(err, w.window)
		}
	}, w.window)
	fd.SetFilter(fynestorage.NewExtensionFileFilter(imagefile.Extensions))
	fd.Show()
}

func (w *MainWindow) handleSave() {
	recordPath, _, err := w.session.Save()
	if err != nil {
		if errors.Is(err, appsession.ErrNoImageOpen) {
			dialog.ShowInformation("Save Data", "Open an image before saving.", w.window)
			return
		}
		dialog.ShowError(err, w.window)
		return
	}
	dialog.ShowInformation("Save Data", "Annotation data saved to "+recordPath, w.window)
}

func (w *MainWindow) handleToggleCreate() {
	if w.selectedBox != 0 || w.mode != modeIdle {
		return
	}
	if w.labelList.Count() == 0 {
		dialog.ShowInformation("Import Label List",
			"Please import label list before creating new bbox.", w.window)
		return
	}

	if w.createActive {
		// Leaving create mode discards an unlabeled pending box; the
		// BoxDeleted event clears the pending state.
		if w.pendingBox != 0 {
			if err := w.session.DeleteBox(w.pendingBox); err != nil {
				w.logger.Warn("discard pending box", "error", err)
				w.clearPendingBox()
				w.refreshAnnotations()
			}
		}
		w.setCreateActive(false)
		return
	}

	if !w.session.HasImage() {
		dialog.ShowInformation("Create BBox", "Open an image first.", w.window)
		return
	}
	w.setCreateActive(true)
}

func (w *MainWindow) handleImport(kind dictionary.Kind, title string) {
	open := func() {
		fd := dialog.NewFileOpen(func(uri fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w.window)
				return
			}
			if uri == nil {
				return
			}
			path := uri.URI().Path()
			uri.Close()
			if _, err := w.session.ImportDictionary(kind, path); err != nil {
				dialog.ShowError(err, w.window)
			}
		}, w.window)
		fd.SetFilter(fynestorage.NewExtensionFileFilter([]string{".txt"}))
		fd.Show()
	}

	if w.importedDictionary(kind) != nil {
		dialog.ShowConfirm(title,
			"A list of this kind was already imported. Importing will replace it. Proceed?",
			func(ok bool) {
				if ok {
					open()
				}
			}, w.window)
		return
	}
	open()
}

func (w *MainWindow) importedDictionary(kind dictionary.Kind) *dictionary.Dictionary {
	switch kind {
	case dictionary.KindLabel:
		return w.session.Labels()
	case dictionary.KindAttribute:
		return w.session.Attributes()
	case dictionary.KindPredicate:
		return w.session.Predicates()
	}
	return nil
}

// --- canvas handlers ---

func (w *MainWindow) handleBoxDrawn(geom annotation.Rect) {
	if w.pendingBox != 0 {
		return
	}
	id, err := w.session.CreateBox(geom)
	if err != nil {
		dialog.ShowError(err, w.window)
		return
	}
	w.trackPendingBox(id)
	w.refreshAnnotations()
	dialog.ShowInformation("Assign Label",
		"Select a label from the label list to confirm the new bbox.", w.window)
}

func (w *MainWindow) handleBoxResized(id annotation.BoxID, geom annotation.Rect) {
	if err := w.session.ResizeBox(id, geom); err != nil {
		dialog.ShowError(err, w.window)
	}
}

func (w *MainWindow) handleCanvasTapped(id annotation.BoxID) {
	if w.mode == modePickTarget {
		w.handleTargetPicked(id)
		return
	}
	if w.mode != modeIdle || w.createActive {
		return
	}

	switch {
	case id == 0:
		// Background taps only clear an existing selection.
		if w.selectedBox != 0 {
			w.selectedBox = 0
			w.refreshAnnotations()
		}
	case w.selectedBox == 0:
		w.selectedBox = id
		w.refreshAnnotations()
	case w.selectedBox == id:
		w.selectedBox = 0
		w.refreshAnnotations()
	}
}

func (w *MainWindow) handleCanvasRightTapped(id annotation.BoxID, abs fyne.Position) {
	if w.mode != modeIdle || w.createActive || id == 0 {
		return
	}
	if w.selectedBox != id {
		w.selectedBox = id
		w.refreshAnnotations()
	}

	menu := fyne.NewMenu("",
		fyne.NewMenuItem("Add Attribute", w.startAddAttribute),
		fyne.NewMenuItem("Add Relationship", w.startAddRelationship),
		fyne.NewMenuItem("Change Label", w.startChangeLabel),
		fyne.NewMenuItem("Remove BBox", w.handleRemoveBox),
	)
	widget.ShowPopUpMenuAtPosition(menu, w.window.Canvas(), abs)
}

// --- context menu flows ---

func (w *MainWindow) startAddAttribute() {
	if w.selectedBox == 0 {
		return
	}
	if w.attributeList.Count() == 0 {
		dialog.ShowInformation("Import Attribute List",
			"Please import attribute list before adding an attribute.", w.window)
		return
	}
	w.mode = modeAddAttribute
	dialog.ShowInformation("Add Attribute",
		"Select an attribute from the attribute list to add.", w.window)
}

func (w *MainWindow) startAddRelationship() {
	if w.selectedBox == 0 {
		return
	}
	if w.predicateList.Count() == 0 {
		dialog.ShowInformation("Import Relationship List",
			"Please import relationship list before adding a relationship.", w.window)
		return
	}
	w.mode = modePickPredicate
	dialog.ShowInformation("Add Relationship",
		"Select a relationship from the relationship list, then click the target bbox.", w.window)
}

func (w *MainWindow) startChangeLabel() {
	if w.selectedBox == 0 {
		return
	}
	w.mode = modeChangeLabel
	dialog.ShowInformation("Change Label",
		"Select the new label from the label list.", w.window)
}

func (w *MainWindow) handleRemoveBox() {
	if w.selectedBox == 0 {
		return
	}
	id := w.selectedBox
	name := w.boxEntryDisplay(id)
	dialog.ShowConfirm("Remove BBox",
		fmt.Sprintf("Remove bbox %s together with its attributes and relationships?", name),
		func(ok bool) {
			if !ok {
				return
			}
			if err := w.session.DeleteBox(id); err != nil {
				dialog.ShowError(err, w.window)
				return
			}
			w.selectedBox = 0
			w.refreshAnnotations()
		}, w.window)
}

func (w *MainWindow) boxEntryDisplay(id annotation.BoxID) string {
	for _, entry := range w.boxEntries {
		if entry.ID == id {
			return entry.Display
		}
	}
	return fmt.Sprintf("#%d", id)
}

// --- list handlers ---

// handleLabelPicked serves both pending box confirmation and label
// change, depending on the active flow.
func (w *MainWindow) handleLabelPicked(index int) {
	defer w.labelList.UnselectAll()

	labels := w.session.Labels()
	if labels == nil {
		return
	}
	token, ok := labels.Token(index + 1)
	if !ok {
		return
	}
	labelID := index + 1

	switch {
	case w.mode == modeChangeLabel && w.selectedBox != 0:
		box, err := w.session.Box(w.selectedBox)
		if err != nil {
			w.mode = modeIdle
			return
		}
		if box.LabelID == labelID {
			dialog.ShowInformation("Change Label",
				"The new label must be different from the old label.", w.window)
			return
		}
		id := w.selectedBox
		dialog.ShowConfirm("Confirm Change",
			fmt.Sprintf("Change label to %q?", token),
			func(ok bool) {
				w.mode = modeIdle
				if !ok {
					return
				}
				if err := w.session.RelabelBox(id, labelID); err != nil {
					dialog.ShowError(err, w.window)
				}
			}, w.window)

	case w.pendingBox != 0:
		id := w.pendingBox
		dialog.ShowConfirm("Confirm Label",
			fmt.Sprintf("Confirm label assignment is %q?", token),
			func(ok bool) {
				if !ok {
					return
				}
				// The BoxLabeled event ends the pending state.
				if err := w.session.LabelBox(id, labelID); err != nil {
					dialog.ShowError(err, w.window)
				}
			}, w.window)
	}
}

func (w *MainWindow) handleAttributePicked(index int) {
	defer w.attributeList.UnselectAll()
	if w.mode != modeAddAttribute || w.selectedBox == 0 {
		return
	}
	attrs := w.session.Attributes()
	if attrs == nil {
		return
	}
	token, ok := attrs.Token(index + 1)
	if !ok {
		return
	}
	attributeID := index + 1
	id := w.selectedBox

	dialog.ShowConfirm("Confirm Attribute",
		fmt.Sprintf("Add attribute %q to the selected bbox?", token),
		func(ok bool) {
			if !ok {
				return
			}
			if err := w.session.AddAttribute(id, attributeID); err != nil {
				w.showAttributeError(err)
				return
			}
			dialog.ShowConfirm("Add Attribute", "Do you want to add another attribute?",
				func(more bool) {
					if !more {
						w.mode = modeIdle
					}
				}, w.window)
		}, w.window)
}

func (w *MainWindow) showAttributeError(err error) {
	switch {
	case errors.Is(err, annotation.ErrDuplicateAttribute):
		dialog.ShowInformation("Add Attribute",
			"This attribute is already assigned to the selected bbox.", w.window)
	case errors.Is(err, annotation.ErrAttributeLimit):
		dialog.ShowInformation("Add Attribute",
			fmt.Sprintf("A bbox can have at most %d attributes.", annotation.MaxAttributes), w.window)
		w.mode = modeIdle
	default:
		dialog.ShowError(err, w.window)
		w.mode = modeIdle
	}
}

func (w *MainWindow) handlePredicatePicked(index int) {
	defer w.predicateList.UnselectAll()
	if w.mode != modePickPredicate {
		return
	}
	preds := w.session.Predicates()
	if preds == nil {
		return
	}
	if _, ok := preds.Token(index + 1); !ok {
		return
	}
	w.pendingPredicate = index + 1
	w.mode = modePickTarget
	dialog.ShowInformation("Add Relationship",
		"Click the target bounding box on the canvas.", w.window)
}

func (w *MainWindow) handleTargetPicked(target annotation.BoxID) {
	source := w.selectedBox
	predicateID := w.pendingPredicate

	if target == 0 {
		dialog.ShowInformation("Add Relationship",
			"Please click on a valid target bounding box.", w.window)
		return
	}
	if target == source {
		dialog.ShowInformation("Add Relationship",
			"Target bbox must be different from the source.", w.window)
		return
	}

	predToken := ""
	if preds := w.session.Predicates(); preds != nil {
		predToken, _ = preds.Token(predicateID)
	}
	dialog.ShowConfirm("Confirm Relationship",
		fmt.Sprintf("Create relationship: %s --- %s --- %s?",
			w.boxEntryDisplay(source), predToken, w.boxEntryDisplay(target)),
		func(ok bool) {
			w.mode = modeIdle
			w.pendingPredicate = 0
			if !ok {
				return
			}
			if _, err := w.session.AddRelationship(source, predicateID, target); err != nil {
				if errors.Is(err, annotation.ErrDuplicateRelationship) {
					dialog.ShowInformation("Add Relationship",
						"This relationship has already been created.", w.window)
					return
				}
				dialog.ShowError(err, w.window)
			}
		}, w.window)
}

func (w *MainWindow) handleLabeledRowSelected(index int) {
	if w.createActive || w.mode != modeIdle {
		return
	}
	if index < 0 || index >= len(w.boxEntries) {
		return
	}
	id := w.boxEntries[index].ID
	if id != w.selectedBox {
		w.selectedBox = id
		w.refreshAnnotations()
	}
}

func (w *MainWindow) handleRemoveAttribute() {
	index := w.attributeView.SelectedIndex()
	if w.selectedBox == 0 || index < 0 || index >= len(w.attributeEntries) {
		return
	}
	entry := w.attributeEntries[index]
	id := w.selectedBox

	dialog.ShowConfirm("Remove Attribute",
		fmt.Sprintf("Remove attribute %q from the selected bbox?", entry.Token),
		func(ok bool) {
			if !ok {
				return
			}
			if err := w.session.RemoveAttribute(id, entry.ID); err != nil {
				dialog.ShowError(err, w.window)
			}
		}, w.window)
}

func (w *MainWindow) handleRemoveRelationship() {
	index := w.relationshipView.SelectedIndex()
	if index < 0 || index >= len(w.relationshipEntries) {
		return
	}
	entry := w.relationshipEntries[index]

	dialog.ShowConfirm("Remove Relationship",
		fmt.Sprintf("Remove relationship %q?", entry.Display),
		func(ok bool) {
			if !ok {
				return
			}
			if err := w.session.RemoveRelationship(entry.ID); err != nil {
				dialog.ShowError(err, w.window)
			}
		}, w.window)
}

// handleCloseRequest warns once about unsaved annotations before the
// window closes.
func (w *MainWindow) handleCloseRequest() {
	if !w.session.HasAnnotations() || !w.session.Dirty() {
		w.window.Close()
		return
	}
	dialog.ShowConfirm("Unsaved Annotations",
		"There are unsaved annotations. Close anyway?",
		func(ok bool) {
			if ok {
				w.window.Close()
			}
		}, w.window)
}
