package render

// In-page scripts for the stabilization pipeline. Each is a function
// expression evaluated in page context; promise results are awaited.

// jsWaitFonts resolves when web fonts finish loading, or immediately
// where the Font Loading API is unsupported.
const jsWaitFonts = `() => (document.fonts && document.fonts.ready) ? document.fonts.ready : Promise.resolve()`

// jsInjectStyle appends a style element with the given CSS.
const jsInjectStyle = `(css) => {
  const style = document.createElement('style');
  style.textContent = css;
  document.head.appendChild(style);
}`

// jsEagerImages flips every img to eager loading and promotes
// data-src/data-srcset lazy-loader attributes when the real ones are
// unset.
const jsEagerImages = `() => {
  const imgs = Array.from(document.querySelectorAll('img'));
  for (const img of imgs) {
    try {
      img.loading = 'eager';
      if (img.dataset && img.dataset.src && !img.src) img.src = img.dataset.src;
      if (img.dataset && img.dataset.srcset && !img.srcset) img.srcset = img.dataset.srcset;
    } catch (e) {}
  }
}`

// jsProgressiveScroll steps down the page with a pause per step to
// trigger intersection-observer lazy loaders, then returns to the top.
const jsProgressiveScroll = `async (step, pauseMs) => {
  const sleep = (ms) => new Promise(r => setTimeout(r, ms));
  let y = 0;
  const max = Math.max(
    document.documentElement.scrollHeight,
    document.body.scrollHeight
  );
  while (y + window.innerHeight < max) {
    window.scrollTo(0, y);
    await sleep(pauseMs);
    y += step;
  }
  window.scrollTo(0, 0);
}`

// jsWaitImages polls until every image reports complete with non-zero
// dimensions, or the deadline passes. Returns whether all loaded.
const jsWaitImages = `async (timeoutMs) => {
  const deadline = Date.now() + timeoutMs;
  const sleep = (ms) => new Promise(r => setTimeout(r, ms));
  while (Date.now() < deadline) {
    const imgs = Array.from(document.images || []);
    const pending = imgs.filter(img => !(img.complete && img.naturalWidth > 0));
    if (pending.length === 0) return true;
    await sleep(200);
  }
  return false;
}`

// jsScrollTop resets scroll so capture starts at the page origin.
const jsScrollTop = `() => window.scrollTo(0, 0)`

// jsExtractLinks returns the resolved absolute href of every anchor in
// the live DOM. Using the DOM (not static HTML) is the point of
// crawling with a real browser: JS-rendered navigation is included.
const jsExtractLinks = `() => Array.from(document.querySelectorAll('a[href]'))
  .map(a => a.href)
  .filter(Boolean)`
