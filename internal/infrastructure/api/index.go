package api

import (
	"net/http"
)

// HandleIndex serves the single-page view. It also makes sure the browser has
// a session before the page opens its websocket.
func (h *TryOnHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.sessions.FromRequest(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1.0"/>
<title>AI Virtual Try-On</title>
<script src="https://cdn.tailwindcss.com"></script>
<style>
body { font-family: Inter, system-ui, -apple-system, Segoe UI, Roboto, sans-serif; }
.preview-box{width:100%;height:320px;background:#1e293b;border:2px dashed #475569;display:flex;align-items:center;justify-content:center;overflow:hidden;border-radius:1rem}
.preview-box img,.preview-box video{max-width:100%;max-height:100%;object-fit:contain}
.loader{border:8px solid #334155;border-top:8px solid #22d3ee;border-radius:50%;width:56px;height:56px;animation:spin 1.2s linear infinite}
@keyframes spin{0%{transform:rotate(0)}100%{transform:rotate(360deg)}}
</style>
</head>
<body class="bg-slate-900 text-slate-100 min-h-screen">
<div class="container mx-auto p-4 md:p-8 max-w-6xl">
<header class="text-center py-6">
<h1 class="text-4xl md:text-5xl font-extrabold bg-clip-text text-transparent bg-gradient-to-r from-sky-400 to-cyan-300">AI Virtual Try-On</h1>
<p class="mt-2 text-slate-400">Upload a photo of yourself and a garment to see how it looks on you.</p>
</header>

<main class="flex flex-col md:flex-row gap-6">
<section class="w-full md:w-2/3 grid grid-cols-1 md:grid-cols-2 gap-6">
<div data-role="subject">
<h2 class="text-lg font-semibold mb-2">1. Your Photo</h2>
<div class="preview-box" id="subject-preview"><span class="text-slate-500">No image selected</span></div>
<div class="flex gap-2 mt-3">
<label class="px-3 py-2 bg-slate-700 rounded-lg cursor-pointer hover:bg-slate-600">Gallery<input type="file" accept="image/*" class="hidden" data-input="gallery"/></label>
<button type="button" class="px-3 py-2 bg-slate-700 rounded-lg hover:bg-slate-600" data-action="camera">Camera</button>
<button type="button" class="px-3 py-2 bg-slate-800 rounded-lg hover:bg-slate-700 ml-auto" data-action="clear">Clear</button>
</div>
</div>
<div data-role="garment">
<h2 class="text-lg font-semibold mb-2">2. Garment</h2>
<div class="preview-box" id="garment-preview"><span class="text-slate-500">No image selected</span></div>
<div class="flex gap-2 mt-3">
<label class="px-3 py-2 bg-slate-700 rounded-lg cursor-pointer hover:bg-slate-600">Gallery<input type="file" accept="image/*" class="hidden" data-input="gallery"/></label>
<button type="button" class="px-3 py-2 bg-slate-700 rounded-lg hover:bg-slate-600" data-action="camera">Camera</button>
<button type="button" class="px-3 py-2 bg-slate-800 rounded-lg hover:bg-slate-700 ml-auto" data-action="clear">Clear</button>
</div>
</div>
</section>

<section class="w-full md:w-1/3">
<h2 class="text-lg font-semibold mb-2">3. Result</h2>
<div class="preview-box" id="result-preview"><span class="text-slate-500">Your result will appear here</span></div>
<a id="download" class="hidden mt-3 inline-block px-3 py-2 bg-slate-700 rounded-lg hover:bg-slate-600" download="tryon-result">Download</a>
</section>
</main>

<footer class="py-6 mt-6 text-center">
<div id="error" class="hidden bg-red-500/20 border border-red-500 text-red-300 px-4 py-3 rounded-lg max-w-3xl mx-auto mb-4" role="alert"></div>
<button id="generate" disabled class="px-10 py-4 font-bold text-lg text-white rounded-full bg-cyan-600 hover:bg-cyan-500 disabled:bg-slate-700 disabled:text-slate-500 disabled:cursor-not-allowed">Virtual Try-On</button>
</footer>
</div>

<dialog id="camera-dialog" class="bg-slate-800 text-slate-100 rounded-xl p-4">
<video id="camera-video" autoplay playsinline class="rounded-lg max-w-md"></video>
<div class="flex gap-2 mt-3 justify-end">
<button type="button" id="camera-cancel" class="px-3 py-2 bg-slate-700 rounded-lg">Cancel</button>
<button type="button" id="camera-snap" class="px-3 py-2 bg-cyan-600 rounded-lg">Capture</button>
</div>
</dialog>

<script>
const generateBtn = document.getElementById('generate');
const errorBox = document.getElementById('error');
const download = document.getElementById('download');
let cameraRole = null;
let cameraStream = null;

function showImage(id, dataUrl, placeholder) {
  const box = document.getElementById(id);
  box.innerHTML = '';
  if (dataUrl) {
    const img = document.createElement('img');
    img.src = dataUrl;
    box.appendChild(img);
  } else {
    const span = document.createElement('span');
    span.className = 'text-slate-500';
    span.textContent = placeholder;
    box.appendChild(span);
  }
}

function render(state) {
  showImage('subject-preview', state.subject, 'No image selected');
  showImage('garment-preview', state.garment, 'No image selected');
  if (state.inFlight) {
    const box = document.getElementById('result-preview');
    box.innerHTML = '<div class="loader"></div>';
  } else {
    showImage('result-preview', state.result, 'Your result will appear here');
  }
  if (state.result && !state.inFlight) {
    download.href = state.result;
    download.classList.remove('hidden');
  } else {
    download.classList.add('hidden');
  }
  if (state.error) {
    errorBox.textContent = 'Error: ' + state.error;
    errorBox.classList.remove('hidden');
  } else {
    errorBox.classList.add('hidden');
  }
  generateBtn.disabled = !state.canGenerate;
  generateBtn.textContent = state.inFlight ? 'Generating...' : 'Virtual Try-On';
}

async function call(method, url, body) {
  const res = await fetch(url, { method, body, credentials: 'same-origin' });
  const data = await res.json().catch(() => ({ error: 'Unexpected server response' }));
  if (data && 'canGenerate' in data) {
    render(data);
  } else if (data && data.error) {
    errorBox.textContent = 'Error: ' + data.error;
    errorBox.classList.remove('hidden');
  }
  return data;
}

function upload(role, blob, name) {
  const form = new FormData();
  form.append('file', blob, name || 'image');
  return call('POST', '/api/images/' + role, form);
}

document.querySelectorAll('[data-role]').forEach(section => {
  const role = section.dataset.role;
  section.querySelector('[data-input="gallery"]').addEventListener('change', e => {
    const file = e.target.files[0];
    if (file) upload(role, file, file.name);
    e.target.value = '';
  });
  section.querySelector('[data-action="clear"]').addEventListener('click', () => call('DELETE', '/api/images/' + role));
  section.querySelector('[data-action="camera"]').addEventListener('click', () => openCamera(role));
});

async function openCamera(role) {
  try {
    cameraStream = await navigator.mediaDevices.getUserMedia({ video: true });
  } catch (err) {
    errorBox.textContent = 'Error: camera is not available';
    errorBox.classList.remove('hidden');
    return;
  }
  cameraRole = role;
  document.getElementById('camera-video').srcObject = cameraStream;
  document.getElementById('camera-dialog').showModal();
}

function closeCamera() {
  if (cameraStream) cameraStream.getTracks().forEach(t => t.stop());
  cameraStream = null;
  document.getElementById('camera-dialog').close();
}

document.getElementById('camera-cancel').addEventListener('click', closeCamera);
document.getElementById('camera-snap').addEventListener('click', () => {
  const video = document.getElementById('camera-video');
  const canvas = document.createElement('canvas');
  canvas.width = video.videoWidth;
  canvas.height = video.videoHeight;
  canvas.getContext('2d').drawImage(video, 0, 0);
  const role = cameraRole;
  canvas.toBlob(blob => { if (blob) upload(role, blob, 'camera.jpg'); }, 'image/jpeg', 0.92);
  closeCamera();
});

generateBtn.addEventListener('click', () => call('POST', '/api/generate'));

function connect() {
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + '/ws');
  ws.onmessage = e => render(JSON.parse(e.data));
  ws.onclose = () => setTimeout(connect, 2000);
}

call('GET', '/api/state').then(connect);
</script>
</body>
</html>
`
